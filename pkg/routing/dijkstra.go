package routing

import (
	"context"

	"github.com/azybler/flowmap/pkg/graph"
)

// MinHeap is a concrete-typed min-heap for the Dijkstra priority queue.
// Avoids interface boxing overhead of container/heap. Entries with equal
// distance pop in ascending vertex order.
type MinHeap struct {
	items []PQItem
}

// PQItem is a priority queue entry.
type PQItem struct {
	Node uint32
	Dist float64
}

func (a PQItem) less(b PQItem) bool {
	if a.Dist != b.Dist {
		return a.Dist < b.Dist
	}
	return a.Node < b.Node
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node uint32, dist float64) {
	h.items = append(h.items, PQItem{node, dist})
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.items[i].less(h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.items[left].less(h.items[smallest]) {
			smallest = left
		}
		if right < n && h.items[right].less(h.items[smallest]) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// cancelCheckInterval is the number of heap pops between context checks.
const cancelCheckInterval = 1024

// dijkstra fills t from t.Source over the directed arcs of g.
//
// Improved vertices are pushed again without removing the old entry; a pop
// whose key no longer matches dist is stale and skipped.
func dijkstra(ctx context.Context, g *graph.Graph, t *Tree) error {
	pq := MinHeap{items: make([]PQItem, 0, 256)}
	pq.Push(t.Source, 0)

	for pops := 0; pq.Len() > 0; pops++ {
		if pops%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		item := pq.Pop()
		u := item.Node
		if item.Dist > t.Dist[u] {
			continue
		}

		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			nd := item.Dist + g.Weight[e]
			if nd < t.Dist[v] {
				t.Dist[v] = nd
				t.Pred[v] = u
				pq.Push(v, nd)
			}
		}
	}
	return nil
}
