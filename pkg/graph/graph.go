package graph

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	ferrors "github.com/azybler/flowmap/pkg/errors"
)

// Node is a graph vertex as seen from the outside world.
type Node struct {
	ID  int64   // external identifier (OSM node id, OSRM id, Neo4j id property)
	Lon float64 // degrees
	Lat float64 // degrees
}

// Edge is a directed arc between two vertex indices.
type Edge struct {
	Source uint32
	Target uint32
	Weight float64
}

// CapacityEdge is a road segment whose two travel directions are rated
// independently. A zero capacity disables that direction.
type CapacityEdge struct {
	From             int64   // external id of the first endpoint
	To               int64   // external id of the second endpoint
	Length           float64 // physical length in meters
	ForwardCapacity  float64 // From -> To
	BackwardCapacity float64 // To -> From
}

// Graph is an immutable directed graph in CSR (Compressed Sparse Row) format.
// Vertex indices are dense and start at 0; Nodes[i] describes vertex i.
// The arcs leaving a vertex are sorted by head index.
type Graph struct {
	NumNodes uint32
	NumEdges uint32
	Nodes    []Node
	FirstOut []uint32  // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are arcs from vertex i
	Head     []uint32  // len: NumEdges; target vertex for each arc
	Weight   []float64 // len: NumEdges; finite, non-negative cost

	index map[int64]uint32
}

// EdgesFrom returns the range of arc indices for arcs originating from vertex u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// Resolve maps an external node identifier to its vertex index.
func (g *Graph) Resolve(id int64) (uint32, error) {
	idx, ok := g.index[id]
	if !ok {
		return 0, ferrors.New(ferrors.CodeNotFound, "node %d is not in the graph", id)
	}
	return idx, nil
}

// Fingerprint returns a CRC32 over the node and arc arrays. Two graphs with
// the same fingerprint are treated as identical by the result cache.
func (g *Graph) Fingerprint() uint32 {
	h := crc32.NewIEEE()
	var buf [8]byte
	put32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		h.Write(buf[:4])
	}
	put64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	put32(g.NumNodes)
	put32(g.NumEdges)
	for _, n := range g.Nodes {
		put64(uint64(n.ID))
		put64(math.Float64bits(n.Lon))
		put64(math.Float64bits(n.Lat))
	}
	for _, v := range g.FirstOut {
		put32(v)
	}
	for _, v := range g.Head {
		put32(v)
	}
	for _, w := range g.Weight {
		put64(math.Float64bits(w))
	}
	return h.Sum32()
}
