package routing

import (
	"context"
	"fmt"
	"math"
	"strings"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/graph"
)

// Strategy selects how arcs are traversed.
type Strategy int

const (
	// Directed follows arcs from tail to head only (Dijkstra).
	Directed Strategy = iota
	// Undirected treats every arc as traversable both ways at equal cost
	// (fixed-point relaxation).
	Undirected
)

func (s Strategy) String() string {
	switch s {
	case Directed:
		return "directed"
	case Undirected:
		return "undirected"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "directed" or "undirected", case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "directed", "":
		return Directed, nil
	case "undirected":
		return Undirected, nil
	default:
		return 0, ferrors.New(ferrors.CodeInvalidInput, "unknown strategy %q (want directed or undirected)", s)
	}
}

// Tree is a shortest-path forest rooted at Source.
//
// Pred[v] == v marks the source and every unreachable vertex. Dist holds the
// shortest distance from Source, +Inf when unreachable.
type Tree struct {
	Source   uint32
	Strategy Strategy
	Pred     []uint32
	Dist     []float64
	Sweeps   int // relaxation sweeps, Undirected only
}

// Reachable reports whether v has a path from the source.
func (t *Tree) Reachable(v uint32) bool {
	return !math.IsInf(t.Dist[v], 1)
}

// Path returns the vertices from the source to v, or nil if v is unreachable.
func (t *Tree) Path(v uint32) []uint32 {
	if int(v) >= len(t.Pred) || !t.Reachable(v) {
		return nil
	}
	var rev []uint32
	for steps := 0; ; steps++ {
		rev = append(rev, v)
		if t.Pred[v] == v || steps > len(t.Pred) {
			break
		}
		v = t.Pred[v]
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// Compute builds the shortest-path tree of g from source.
//
// Tie-breaking is fixed: arcs are scanned in CSR order (head ascending),
// a vertex changes predecessor only on strict improvement, and heap ties
// pop the lower vertex index first. Cancellation is observed between heap
// pops (every 1024) or between sweeps and returns ctx.Err().
func Compute(ctx context.Context, g *graph.Graph, source uint32, strategy Strategy) (*Tree, error) {
	if source >= g.NumNodes {
		return nil, ferrors.New(ferrors.CodeInvalidSource, "source vertex %d out of range [0, %d)", source, g.NumNodes)
	}

	t := &Tree{
		Source:   source,
		Strategy: strategy,
		Pred:     make([]uint32, g.NumNodes),
		Dist:     make([]float64, g.NumNodes),
	}
	for i := range t.Pred {
		t.Pred[i] = uint32(i)
		t.Dist[i] = math.Inf(1)
	}
	t.Dist[source] = 0

	var err error
	switch strategy {
	case Directed:
		err = dijkstra(ctx, g, t)
	case Undirected:
		err = relaxUndirected(ctx, g, t)
	default:
		return nil, ferrors.New(ferrors.CodeInvalidInput, "unknown strategy %v", strategy)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
