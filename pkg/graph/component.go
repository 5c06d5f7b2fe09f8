package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in the set containing x.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

func weakComponents(g *Graph) *UnionFind {
	uf := NewUnionFind(g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			uf.Union(u, g.Head[e])
		}
	}
	return uf
}

// LargestComponent returns the vertex indices of the largest weakly
// connected component, in ascending order. Ties go to the component holding
// the lowest vertex index.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}
	uf := weakComponents(g)

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}
	return collect(g, uf, bestRoot, bestSize)
}

func collect(g *Graph, uf *UnionFind, root, size uint32) []uint32 {
	nodes := make([]uint32, 0, size)
	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.Find(i) == root {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// FilterToComponent returns a new graph holding only the given vertices and
// the arcs between them. Vertices are renumbered in the order given; external
// ids are preserved so Resolve keeps working.
func FilterToComponent(g *Graph, keep []uint32) *Graph {
	oldToNew := make(map[uint32]uint32, len(keep))
	nodes := make([]Node, len(keep))
	index := make(map[int64]uint32, len(keep))
	for newIdx, oldIdx := range keep {
		oldToNew[oldIdx] = uint32(newIdx)
		nodes[newIdx] = g.Nodes[oldIdx]
		index[g.Nodes[oldIdx].ID] = uint32(newIdx)
	}

	var arcs []Edge
	for _, oldU := range keep {
		start, end := g.EdgesFrom(oldU)
		for e := start; e < end; e++ {
			if newV, ok := oldToNew[g.Head[e]]; ok {
				arcs = append(arcs, Edge{Source: oldToNew[oldU], Target: newV, Weight: g.Weight[e]})
			}
		}
	}
	return assemble(nodes, index, arcs)
}
