package flow

import (
	"github.com/paulmach/orb"

	"github.com/azybler/flowmap/pkg/graph"
)

// Bounds returns the bounding box of the vertices taking part in the forest:
// every v with pred[v] != v, plus the source itself. A forest with no edges
// yields the source's point. ok is false when source is out of range or pred
// and nodes disagree in length.
func Bounds(pred []uint32, nodes []graph.Node, source uint32) (b orb.Bound, ok bool) {
	if len(pred) != len(nodes) || int(source) >= len(nodes) {
		return orb.Bound{}, false
	}

	root := point(nodes[source])
	b = orb.Bound{Min: root, Max: root}
	for v, p := range pred {
		if p != uint32(v) {
			b = b.Extend(point(nodes[v]))
		}
	}
	return b, true
}

func point(n graph.Node) orb.Point {
	return orb.Point{n.Lon, n.Lat}
}
