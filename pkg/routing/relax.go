package routing

import (
	"context"

	"github.com/azybler/flowmap/pkg/graph"
)

// relaxUndirected fills t by sweeping every arc of g in both directions
// until a full sweep changes nothing. Cost is O(V·E) in the worst case, so
// it suits only small graphs.
func relaxUndirected(ctx context.Context, g *graph.Graph, t *Tree) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		changed := false
		for u := uint32(0); u < g.NumNodes; u++ {
			start, end := g.EdgesFrom(u)
			for e := start; e < end; e++ {
				v, w := g.Head[e], g.Weight[e]
				if d := t.Dist[u] + w; d < t.Dist[v] {
					t.Dist[v] = d
					t.Pred[v] = u
					changed = true
				}
				if d := t.Dist[v] + w; d < t.Dist[u] {
					t.Dist[u] = d
					t.Pred[u] = v
					changed = true
				}
			}
		}
		t.Sweeps++
		if !changed {
			return nil
		}
	}
}
