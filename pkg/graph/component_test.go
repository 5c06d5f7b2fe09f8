package graph

import (
	"testing"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(5)

	for i := range uint32(5) {
		if uf.Find(i) != i {
			t.Errorf("Find(%d) = %d, want %d", i, uf.Find(i), i)
		}
	}

	uf.Union(0, 1)
	if uf.Find(0) != uf.Find(1) {
		t.Error("0 and 1 should be in same set")
	}

	uf.Union(2, 3)
	if uf.Find(0) == uf.Find(2) {
		t.Error("0 and 2 should be in different sets")
	}

	if !uf.Union(1, 3) {
		t.Error("Union(1, 3) should merge two sets")
	}
	if uf.Union(0, 2) {
		t.Error("Union(0, 2) should report already merged")
	}
	if uf.Size(3) != 4 {
		t.Errorf("Size(3) = %d, want 4", uf.Size(3))
	}
}

// twoComponents builds a triangle 10->20->30->10 and an isolated pair 40->50.
func twoComponents(t *testing.T) *Graph {
	t.Helper()
	nodes := []Node{
		{ID: 10, Lon: 103.0, Lat: 1.0},
		{ID: 20, Lon: 103.1, Lat: 1.1},
		{ID: 30, Lon: 103.2, Lat: 1.2},
		{ID: 40, Lon: 104.0, Lat: 2.0},
		{ID: 50, Lon: 104.1, Lat: 2.1},
	}
	edges := []Edge{
		{Source: 0, Target: 1, Weight: 100},
		{Source: 1, Target: 2, Weight: 200},
		{Source: 2, Target: 0, Weight: 300},
		{Source: 3, Target: 4, Weight: 400},
	}
	g, err := FromEdges(nodes, edges)
	if err != nil {
		t.Fatalf("FromEdges: %v", err)
	}
	return g
}

func TestLargestComponent(t *testing.T) {
	g := twoComponents(t)
	nodes := LargestComponent(g)
	if len(nodes) != 3 {
		t.Fatalf("LargestComponent has %d nodes, want 3", len(nodes))
	}
	for i, want := range []uint32{0, 1, 2} {
		if nodes[i] != want {
			t.Errorf("nodes[%d] = %d, want %d", i, nodes[i], want)
		}
	}
}

func TestFilterToComponent(t *testing.T) {
	g := twoComponents(t)
	filtered := FilterToComponent(g, LargestComponent(g))

	if filtered.NumNodes != 3 {
		t.Fatalf("filtered NumNodes = %d, want 3", filtered.NumNodes)
	}
	if filtered.NumEdges != 3 {
		t.Fatalf("filtered NumEdges = %d, want 3", filtered.NumEdges)
	}

	for i := uint32(1); i <= filtered.NumNodes; i++ {
		if filtered.FirstOut[i] < filtered.FirstOut[i-1] {
			t.Errorf("FirstOut not monotonic at %d", i)
		}
	}
	if filtered.FirstOut[filtered.NumNodes] != filtered.NumEdges {
		t.Error("FirstOut[NumNodes] != NumEdges")
	}
	for i, h := range filtered.Head {
		if h >= filtered.NumNodes {
			t.Errorf("Head[%d] = %d >= NumNodes %d", i, h, filtered.NumNodes)
		}
	}

	var total float64
	for _, w := range filtered.Weight {
		total += w
	}
	if total != 600 {
		t.Errorf("total weight = %v, want 600", total)
	}

	if _, err := filtered.Resolve(40); err == nil {
		t.Error("Resolve(40) should fail after filtering")
	}
	if idx, err := filtered.Resolve(30); err != nil || idx != 2 {
		t.Errorf("Resolve(30) = %d, %v; want 2, nil", idx, err)
	}
}

func TestFilterToComponentEmptyGraph(t *testing.T) {
	g, err := FromEdges(nil, nil)
	if err != nil {
		t.Fatalf("FromEdges: %v", err)
	}
	if nodes := LargestComponent(g); nodes != nil {
		t.Errorf("expected nil for empty graph, got %v", nodes)
	}

	filtered := FilterToComponent(g, nil)
	if filtered.NumNodes != 0 || filtered.NumEdges != 0 {
		t.Errorf("expected empty graph, got %d nodes, %d edges", filtered.NumNodes, filtered.NumEdges)
	}
	if len(filtered.FirstOut) != 1 {
		t.Errorf("len(FirstOut) = %d, want 1", len(filtered.FirstOut))
	}
}
