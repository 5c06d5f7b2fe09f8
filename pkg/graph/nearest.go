package graph

import (
	"math"

	"github.com/tidwall/rtree"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/geo"
)

// Search windows grow by this factor until a vertex is found.
const (
	initialWindowDeg = 0.005 // ~500 m
	maxWindowDeg     = 5.0
)

// Nearest answers closest-vertex queries over a graph's coordinates.
type Nearest struct {
	g  *Graph
	tr rtree.RTreeG[uint32]
}

// NewNearest indexes every vertex of g.
func NewNearest(g *Graph) *Nearest {
	n := &Nearest{g: g}
	for i, node := range g.Nodes {
		p := [2]float64{node.Lon, node.Lat}
		n.tr.Insert(p, p, uint32(i))
	}
	return n
}

// Nearest returns the vertex closest to (lon, lat) and its distance in
// meters. Equal distances resolve to the lower vertex index.
func (n *Nearest) Nearest(lon, lat float64) (uint32, float64, error) {
	if n.tr.Len() == 0 {
		return 0, 0, ferrors.New(ferrors.CodeNotFound, "graph has no vertices")
	}

	for win := initialWindowDeg; win <= maxWindowDeg; win *= 2 {
		best, bestDist, found := n.search(lon, lat, win)
		if !found {
			continue
		}
		// A hit inside the window may still lose to a vertex just outside
		// its corner; one more pass over the circumscribing square settles it.
		if reach := bestDist / metersPerDegree; reach > win {
			best, bestDist, _ = n.search(lon, lat, reach)
		}
		return best, bestDist, nil
	}
	return 0, 0, ferrors.New(ferrors.CodeNotFound, "no vertex within %.1f degrees of %.6f,%.6f", maxWindowDeg, lon, lat)
}

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = 111_320.0

func (n *Nearest) search(lon, lat, win float64) (uint32, float64, bool) {
	// Longitude degrees shrink toward the poles.
	lonWin := win / math.Max(math.Cos(lat*math.Pi/180), 0.01)
	lo := [2]float64{lon - lonWin, lat - win}
	hi := [2]float64{lon + lonWin, lat + win}

	best := uint32(0)
	bestDist := math.Inf(1)
	found := false
	n.tr.Search(lo, hi, func(_, _ [2]float64, v uint32) bool {
		node := n.g.Nodes[v]
		d := geo.EquirectangularDist(lat, lon, node.Lat, node.Lon)
		if d < bestDist || (d == bestDist && v < best) {
			best, bestDist, found = v, d, true
		}
		return true
	})
	return best, bestDist, found
}
