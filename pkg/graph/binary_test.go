package graph_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/azybler/flowmap/pkg/graph"
)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := []graph.Node{
		{ID: 10, Lon: 103.0, Lat: 1.0},
		{ID: 20, Lon: 103.1, Lat: 1.1},
		{ID: 30, Lon: 103.2, Lat: 1.2},
		{ID: 40, Lon: 103.3, Lat: 1.3},
	}
	edges := []graph.CapacityEdge{
		{From: 10, To: 20, Length: 100, ForwardCapacity: 1, BackwardCapacity: 1},
		{From: 20, To: 30, Length: 200, ForwardCapacity: 2, BackwardCapacity: 1},
		{From: 10, To: 40, Length: 300, ForwardCapacity: 1},
	}
	g, err := graph.FromCapacity(nodes, edges, graph.Filter{})
	if err != nil {
		t.Fatalf("FromCapacity: %v", err)
	}
	return g
}

func readFile(t *testing.T, path string) (*graph.Graph, error) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	return graph.ReadBinary(f)
}

func TestBinaryRoundTrip(t *testing.T) {
	original := buildTestGraph(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.graph.bin")

	if err := graph.WriteBinary(path, original); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}

	loaded, err := readFile(t, path)
	if err != nil {
		t.Fatalf("ReadBinary: %v", err)
	}

	if loaded.NumNodes != original.NumNodes {
		t.Errorf("NumNodes: got %d, want %d", loaded.NumNodes, original.NumNodes)
	}
	if loaded.NumEdges != original.NumEdges {
		t.Fatalf("NumEdges: got %d, want %d", loaded.NumEdges, original.NumEdges)
	}
	for i := range original.Nodes {
		if loaded.Nodes[i] != original.Nodes[i] {
			t.Errorf("Nodes[%d]: got %+v, want %+v", i, loaded.Nodes[i], original.Nodes[i])
		}
	}
	for i := range original.Head {
		if loaded.Head[i] != original.Head[i] {
			t.Errorf("Head[%d]: got %d, want %d", i, loaded.Head[i], original.Head[i])
		}
		if loaded.Weight[i] != original.Weight[i] {
			t.Errorf("Weight[%d]: got %v, want %v", i, loaded.Weight[i], original.Weight[i])
		}
	}
	if loaded.Fingerprint() != original.Fingerprint() {
		t.Error("fingerprint changed across round trip")
	}

	// The id index is rebuilt on load.
	idx, err := loaded.Resolve(30)
	if err != nil || idx != 2 {
		t.Errorf("Resolve(30) = %d, %v; want 2, nil", idx, err)
	}
}

func TestBinaryInvalidMagic(t *testing.T) {
	_, err := graph.ReadBinary(bytes.NewReader([]byte("NOT_FLOWMAP_HEADER_BLAH_BLAH_BLAH_MORE_DATA")))
	if err == nil {
		t.Fatal("expected error for invalid magic bytes")
	}
}

func TestBinaryTruncatedFile(t *testing.T) {
	_, err := graph.ReadBinary(bytes.NewReader([]byte("FLOWMAPG")))
	if err == nil {
		t.Fatal("expected error for truncated file")
	}
}

func TestBinaryCorruptedPayload(t *testing.T) {
	g := buildTestGraph(t)
	path := filepath.Join(t.TempDir(), "corrupt.graph.bin")
	if err := graph.WriteBinary(path, g); err != nil {
		t.Fatalf("WriteBinary: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)/2] ^= 0xFF
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := readFile(t, path); err == nil {
		t.Fatal("expected CRC error for corrupted payload")
	}
}
