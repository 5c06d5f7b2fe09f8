// Package flow turns a shortest-path predecessor array into per-edge
// traversal counts and the geographic extent of the forest.
package flow

import (
	"cmp"
	"slices"

	ferrors "github.com/azybler/flowmap/pkg/errors"
)

// Orientation decides how an edge key is written.
type Orientation int

const (
	// Oriented keys an edge as (upstream, downstream): the predecessor first.
	Oriented Orientation = iota
	// Unoriented keys an edge as (min, max) so both travel directions of a
	// road share one counter.
	Unoriented
)

// EdgeKey identifies a used edge by its two vertex indices.
type EdgeKey struct {
	A uint32
	B uint32
}

func (o Orientation) key(upstream, downstream uint32) EdgeKey {
	if o == Unoriented && downstream < upstream {
		return EdgeKey{A: downstream, B: upstream}
	}
	return EdgeKey{A: upstream, B: downstream}
}

// Usage is the number of shortest paths that traverse an edge.
type Usage struct {
	Key   EdgeKey
	Count int
}

// Aggregate counts, for every edge of the forest described by pred, how many
// root-directed walks pass through it. Each vertex walks v -> pred[v] -> ...
// until it reaches a vertex that is its own predecessor.
//
// The result is sorted ascending by Count, ties by Key.A then Key.B, so the
// busiest edges sit at the tail. Every Count is at least 1.
func Aggregate(pred []uint32, orient Orientation) ([]Usage, error) {
	n := uint32(len(pred))
	counts := make(map[EdgeKey]int)

	for v := uint32(0); v < n; v++ {
		x := v
		for steps := uint32(0); pred[x] != x; steps++ {
			p := pred[x]
			if p >= n {
				return nil, ferrors.New(ferrors.CodeMalformedRecord, "pred[%d] = %d out of range [0, %d)", x, p, n)
			}
			if steps >= n {
				return nil, ferrors.New(ferrors.CodeMalformedRecord, "predecessor walk from vertex %d does not terminate", v)
			}
			counts[orient.key(p, x)]++
			x = p
		}
	}

	usages := make([]Usage, 0, len(counts))
	for k, c := range counts {
		usages = append(usages, Usage{Key: k, Count: c})
	}
	slices.SortFunc(usages, compareUsage)
	return usages, nil
}

func compareUsage(a, b Usage) int {
	if c := cmp.Compare(a.Count, b.Count); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Key.A, b.Key.A); c != 0 {
		return c
	}
	return cmp.Compare(a.Key.B, b.Key.B)
}

// Top returns the k highest-count entries of a sorted usage list, still in
// ascending order. k <= 0 keeps everything.
func Top(usages []Usage, k int) []Usage {
	if k <= 0 || k >= len(usages) {
		return usages
	}
	return usages[len(usages)-k:]
}

// Total returns the sum of all counts.
func Total(usages []Usage) int {
	total := 0
	for _, u := range usages {
		total += u.Count
	}
	return total
}

// MaxCount returns the largest count in a sorted usage list, or 0 if empty.
func MaxCount(usages []Usage) int {
	if len(usages) == 0 {
		return 0
	}
	return usages[len(usages)-1].Count
}
