// Package pipeline runs one flow-map analysis end to end: load the graph,
// resolve the source, build the shortest-path forest, count edge usage,
// compute the drawing extent, then persist and render. Stages run strictly
// in sequence and the first error stops the run.
package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/azybler/flowmap/pkg/cache"
	"github.com/azybler/flowmap/pkg/config"
	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/flow"
	"github.com/azybler/flowmap/pkg/geo"
	"github.com/azybler/flowmap/pkg/graph"
	"github.com/azybler/flowmap/pkg/logging"
	"github.com/azybler/flowmap/pkg/render"
	"github.com/azybler/flowmap/pkg/routing"
	"github.com/azybler/flowmap/pkg/source"
	"github.com/azybler/flowmap/pkg/store"
)

// Deps are the collaborators of a run. Only Source is required.
type Deps struct {
	Source source.Source
	Cache  cache.Cache   // nil disables caching
	Store  store.Store   // nil skips persistence
	Canvas render.Canvas // nil skips rendering; closed by Run on every path
	Hooks  Hooks         // nil means NoopHooks

	Progress graph.Progress
}

// Result summarizes a finished run.
type Result struct {
	RunID     uuid.UUID
	Source    uint32
	Strategy  routing.Strategy
	Nodes     int
	Reachable int
	Usages    []flow.Usage
	Bound     orb.Bound
	CacheHit  bool
}

// cachedUsage is what the result cache stores per (graph, source, strategy).
type cachedUsage struct {
	Usages    []flow.Usage `json:"usages"`
	Bound     orb.Bound    `json:"bound"`
	Reachable int          `json:"reachable"`
}

type runner struct {
	cfg    config.Config
	deps   Deps
	logger *log.Logger
	ttl    time.Duration
}

// Run executes every stage for cfg.
func Run(ctx context.Context, cfg config.Config, deps Deps) (res *Result, err error) {
	canvasPending := deps.Canvas != nil
	defer func() {
		if canvasPending {
			if cerr := deps.Canvas.Close(); cerr != nil && err == nil {
				err = ferrors.Wrap(ferrors.CodeRender, cerr, "close canvas")
			}
		}
	}()

	if deps.Source == nil {
		return nil, ferrors.New(ferrors.CodeInvalidInput, "no graph source")
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNullCache()
	}
	if deps.Hooks == nil {
		deps.Hooks = NoopHooks{}
	}
	strategy, err := routing.ParseStrategy(cfg.Input.Strategy)
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.CacheTTL()
	if err != nil {
		return nil, err
	}

	r := &runner{cfg: cfg, deps: deps, logger: logging.FromContext(ctx), ttl: ttl}
	res = &Result{RunID: uuid.New(), Strategy: strategy}
	r.logger.Info("Starting run", "run_id", res.RunID, "source", deps.Source.Name(), "strategy", strategy)

	var g *graph.Graph
	err = r.stage(ctx, StageLoad, func() error {
		var lerr error
		g, res.Source, lerr = source.Load(ctx, deps.Source, source.Options{
			Progress:         deps.Progress,
			Filter:           graph.Filter{MinCapacity: cfg.Input.MinCapacity},
			LargestComponent: cfg.Input.LargestComponent,
			SourceID:         cfg.Input.SourceID,
		})
		return lerr
	})
	if err != nil {
		return nil, err
	}
	res.Nodes = int(g.NumNodes)

	if cfg.Input.SourceID == nil && len(cfg.Input.SourceLonLat) == 2 {
		err = r.stage(ctx, StageResolve, func() error {
			lon, lat := cfg.Input.SourceLonLat[0], cfg.Input.SourceLonLat[1]
			v, dist, nerr := graph.NewNearest(g).Nearest(lon, lat)
			if nerr != nil {
				return nerr
			}
			res.Source = v
			r.logger.Info("Snapped source", "lon", lon, "lat", lat, "vertex", v, "id", g.Nodes[v].ID, "meters", dist)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	key := cache.Key("usage", g.Fingerprint(), res.Source, strategy.String())
	if cached, ok := r.lookup(ctx, key); ok {
		res.Usages, res.Bound, res.Reachable = cached.Usages, cached.Bound, cached.Reachable
		res.CacheHit = true
	} else {
		if err := r.analyze(ctx, g, res); err != nil {
			return nil, err
		}
		r.remember(ctx, key, cachedUsage{Usages: res.Usages, Bound: res.Bound, Reachable: res.Reachable})
	}
	r.logger.Info("Usage ready", "edges", len(res.Usages), "paths", res.Reachable, "busiest", flow.MaxCount(res.Usages))

	if deps.Store != nil {
		err = r.stage(ctx, StagePersist, func() error {
			rows, rerr := store.Rows(res.Usages, g.Nodes)
			if rerr != nil {
				return rerr
			}
			return deps.Store.Save(ctx, res.RunID, rows)
		})
		if err != nil {
			return nil, err
		}
	}

	if deps.Canvas != nil {
		canvasPending = false
		err = r.stage(ctx, StageRender, func() error {
			return render.Render(deps.Canvas, res.Usages, g.Nodes, res.Bound, RenderOptions(cfg.Render))
		})
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// analyze runs the route, aggregate and bounds stages.
func (r *runner) analyze(ctx context.Context, g *graph.Graph, res *Result) error {
	var tree *routing.Tree
	err := r.stage(ctx, StageRoute, func() error {
		var cerr error
		tree, cerr = routing.Compute(ctx, g, res.Source, res.Strategy)
		return cerr
	})
	if err != nil {
		return err
	}
	for v := range tree.Pred {
		if v != int(res.Source) && tree.Reachable(uint32(v)) {
			res.Reachable++
		}
	}
	r.logFarthest(g, tree)

	orient := flow.Oriented
	if res.Strategy == routing.Undirected {
		orient = flow.Unoriented
	}
	err = r.stage(ctx, StageAggregate, func() error {
		var aerr error
		res.Usages, aerr = flow.Aggregate(tree.Pred, orient)
		return aerr
	})
	if err != nil {
		return err
	}

	return r.stage(ctx, StageBounds, func() error {
		b, ok := flow.Bounds(tree.Pred, g.Nodes, res.Source)
		if !ok {
			return ferrors.New(ferrors.CodeInvalidSource, "no bounds for source %d", res.Source)
		}
		res.Bound = b
		return nil
	})
}

// logFarthest reports the costliest reachable vertex and the ground length
// of its tree path.
func (r *runner) logFarthest(g *graph.Graph, tree *routing.Tree) {
	far, cost := tree.Source, 0.0
	for v, d := range tree.Dist {
		if !math.IsInf(d, 1) && d > cost {
			far, cost = uint32(v), d
		}
	}
	if far == tree.Source {
		return
	}
	path := tree.Path(far)
	line := make(orb.LineString, len(path))
	for i, v := range path {
		line[i] = orb.Point{g.Nodes[v].Lon, g.Nodes[v].Lat}
	}
	r.logger.Debug("Farthest vertex", "id", g.Nodes[far].ID, "cost", cost,
		"hops", len(path)-1, "meters", geo.PathLength(line))
}

func (r *runner) stage(ctx context.Context, name string, fn func() error) error {
	r.deps.Hooks.OnStageStart(ctx, name)
	timer := logging.Start(r.logger)
	err := fn()
	r.deps.Hooks.OnStageComplete(ctx, name, timer.Elapsed(), err)
	if err != nil {
		r.logger.Error("Stage failed", "stage", name, "err", err)
		return err
	}
	timer.Done("Stage complete", "stage", name)
	return nil
}

// lookup reads key from the cache. Any cache failure is a miss.
func (r *runner) lookup(ctx context.Context, key string) (cachedUsage, bool) {
	var c cachedUsage
	data, ok, err := r.deps.Cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("Cache read failed", "err", err)
	}
	if ok && err == nil {
		if err := json.Unmarshal(data, &c); err == nil {
			r.deps.Hooks.OnCacheHit(ctx, key)
			r.logger.Debug("Cache hit", "key", key)
			return c, true
		}
		r.logger.Warn("Ignoring undecodable cache entry", "key", key)
	}
	r.deps.Hooks.OnCacheMiss(ctx, key)
	return c, false
}

func (r *runner) remember(ctx context.Context, key string, c cachedUsage) {
	data, err := json.Marshal(c)
	if err == nil {
		err = r.deps.Cache.Set(ctx, key, data, r.ttl)
	}
	if err != nil {
		r.logger.Warn("Cache write failed", "err", err)
	}
}

// RenderOptions maps configuration onto render.Options.
func RenderOptions(c config.Render) render.Options {
	return render.Options{
		MaxWidth: c.MaxWidth,
		MinWidth: c.MinWidth,
		Keep:     c.Keep,
		MinCount: c.MinCount,
		Extent:   c.Extent,
	}
}
