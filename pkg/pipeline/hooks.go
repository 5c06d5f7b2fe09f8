package pipeline

import (
	"context"
	"time"
)

// Stage names reported to Hooks, in execution order.
const (
	StageLoad      = "load"
	StageResolve   = "resolve"
	StageRoute     = "route"
	StageAggregate = "aggregate"
	StageBounds    = "bounds"
	StagePersist   = "persist"
	StageRender    = "render"
)

// Hooks receives pipeline events. Implementations must not block.
type Hooks interface {
	OnStageStart(ctx context.Context, stage string)
	OnStageComplete(ctx context.Context, stage string, duration time.Duration, err error)

	OnCacheHit(ctx context.Context, key string)
	OnCacheMiss(ctx context.Context, key string)
}

// NoopHooks ignores every event.
type NoopHooks struct{}

func (NoopHooks) OnStageStart(context.Context, string)                          {}
func (NoopHooks) OnStageComplete(context.Context, string, time.Duration, error) {}
func (NoopHooks) OnCacheHit(context.Context, string)                            {}
func (NoopHooks) OnCacheMiss(context.Context, string)                           {}

var _ Hooks = NoopHooks{}
