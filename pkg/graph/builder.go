package graph

import (
	"cmp"
	"math"
	"slices"

	ferrors "github.com/azybler/flowmap/pkg/errors"
)

// Direction selects which travel directions of a CapacityEdge become arcs.
type Direction int

const (
	BothDirections Direction = iota
	ForwardOnly
	BackwardOnly
)

// Filter restricts the arcs derived from capacity-rated records.
// The zero value keeps both directions of every road with positive capacity.
type Filter struct {
	Direction   Direction
	MinCapacity float64 // directions rated below this are dropped
}

// keep reports whether a direction becomes an arc. NaN and non-positive
// capacities never do.
func (f Filter) keep(forward bool, capacity float64) bool {
	if !(capacity > 0) || capacity < f.MinCapacity {
		return false
	}
	switch f.Direction {
	case ForwardOnly:
		return forward
	case BackwardOnly:
		return !forward
	default:
		return true
	}
}

// FromEdges builds a Graph from indexed node and edge records.
// Edge endpoints must be valid indices into nodes.
func FromEdges(nodes []Node, edges []Edge) (*Graph, error) {
	numNodes := uint32(len(nodes))
	for i, e := range edges {
		if e.Source >= numNodes || e.Target >= numNodes {
			return nil, ferrors.New(ferrors.CodeMalformedRecord,
				"edge %d references vertex %d->%d, graph has %d nodes", i, e.Source, e.Target, numNodes)
		}
		if err := checkWeight(i, e.Weight); err != nil {
			return nil, err
		}
	}

	index, err := buildIndex(nodes)
	if err != nil {
		return nil, err
	}

	arcs := make([]Edge, len(edges))
	copy(arcs, edges)
	return assemble(nodes, index, arcs), nil
}

// FromCapacity builds a Graph from capacity-rated road records. Each record
// contributes up to two arcs, one per enabled direction, weighted by
// length / capacity: a road that carries twice the traffic costs half as much.
func FromCapacity(nodes []Node, edges []CapacityEdge, filter Filter) (*Graph, error) {
	index, err := buildIndex(nodes)
	if err != nil {
		return nil, err
	}

	arcs := make([]Edge, 0, 2*len(edges))
	for i, e := range edges {
		from, ok := index[e.From]
		if !ok {
			return nil, ferrors.New(ferrors.CodeMalformedRecord, "edge %d references unknown node %d", i, e.From)
		}
		to, ok := index[e.To]
		if !ok {
			return nil, ferrors.New(ferrors.CodeMalformedRecord, "edge %d references unknown node %d", i, e.To)
		}
		if err := checkWeight(i, e.Length); err != nil {
			return nil, err
		}

		if filter.keep(true, e.ForwardCapacity) {
			w := e.Length / e.ForwardCapacity
			if err := checkWeight(i, w); err != nil {
				return nil, err
			}
			arcs = append(arcs, Edge{Source: from, Target: to, Weight: w})
		}
		if filter.keep(false, e.BackwardCapacity) {
			w := e.Length / e.BackwardCapacity
			if err := checkWeight(i, w); err != nil {
				return nil, err
			}
			arcs = append(arcs, Edge{Source: to, Target: from, Weight: w})
		}
	}

	return assemble(nodes, index, arcs), nil
}

func checkWeight(i int, w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return ferrors.New(ferrors.CodeMalformedRecord, "edge %d has invalid weight %v", i, w)
	}
	return nil
}

func buildIndex(nodes []Node) (map[int64]uint32, error) {
	index := make(map[int64]uint32, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.ID]; dup {
			return nil, ferrors.New(ferrors.CodeMalformedRecord, "duplicate node id %d at position %d", n.ID, i)
		}
		index[n.ID] = uint32(i)
	}
	return index, nil
}

// assemble sorts arcs by (source, target, weight) and lays them out as CSR.
// It takes ownership of arcs.
func assemble(nodes []Node, index map[int64]uint32, arcs []Edge) *Graph {
	numNodes := uint32(len(nodes))

	slices.SortFunc(arcs, func(a, b Edge) int {
		if c := cmp.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Target, b.Target); c != 0 {
			return c
		}
		return cmp.Compare(a.Weight, b.Weight)
	})

	numEdges := uint32(len(arcs))
	firstOut := make([]uint32, numNodes+1)
	head := make([]uint32, numEdges)
	weight := make([]float64, numEdges)

	for i, e := range arcs {
		head[i] = e.Target
		weight[i] = e.Weight
		firstOut[e.Source+1]++
	}
	// Prefix sum.
	for i := uint32(1); i <= numNodes; i++ {
		firstOut[i] += firstOut[i-1]
	}

	return &Graph{
		NumNodes: numNodes,
		NumEdges: numEdges,
		Nodes:    nodes,
		FirstOut: firstOut,
		Head:     head,
		Weight:   weight,
		index:    index,
	}
}
