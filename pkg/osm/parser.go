package osm

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/azybler/flowmap/pkg/geo"
	"github.com/azybler/flowmap/pkg/graph"
	"github.com/azybler/flowmap/pkg/logging"
)

// ParseResult holds the road network extracted from an OSM PBF file.
type ParseResult struct {
	Nodes []graph.Node         // sorted by OSM node id
	Edges []graph.CapacityEdge // one record per consecutive node pair of a way
}

// laneCapacity is the relative throughput of one lane per highway class,
// normalized so a tertiary lane is 1.
var laneCapacity = map[string]float64{
	"motorway":      2.0,
	"trunk":         1.8,
	"primary":       1.5,
	"secondary":     1.2,
	"tertiary":      1.0,
	"unclassified":  0.8,
	"residential":   0.8,
	"living_street": 0.4,
	"service":       0.5,
}

// highwayClass strips the _link suffix so ramps share their parent's capacity.
func highwayClass(tags osm.Tags) string {
	return strings.TrimSuffix(tags.Find("highway"), "_link")
}

// isCarAccessible returns true if the way is drivable by car.
func isCarAccessible(tags osm.Tags) bool {
	if _, ok := laneCapacity[highwayClass(tags)]; !ok {
		return false
	}
	// Area highways are pedestrian plazas.
	if tags.Find("area") == "yes" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}
	return true
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward, backward = true, true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	case "reversible":
		// Time-dependent.
		forward, backward = false, false
	}
	return forward, backward
}

// lanes parses a lane count tag. Values like "2;3" take the first entry.
func lanes(tags osm.Tags, key string) float64 {
	v := tags.Find(key)
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || n <= 0 || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// capacities returns the per-direction capacity of a way. A disabled
// direction has capacity 0.
//
// Lane counts come from lanes:forward / lanes:backward when tagged. Otherwise
// the total lanes tag is split evenly across enabled directions, defaulting
// to one lane each way (two for motorways).
func capacities(tags osm.Tags) (forward, backward float64) {
	fwd, bwd := directionFlags(tags)
	if !fwd && !bwd {
		return 0, 0
	}
	class := highwayClass(tags)
	perLane := laneCapacity[class]

	defaultLanes := 1.0
	if class == "motorway" {
		defaultLanes = 2
	}

	total := lanes(tags, "lanes")
	split := func(explicit string, enabled, both bool) float64 {
		if !enabled {
			return 0
		}
		if n := lanes(tags, explicit); n > 0 {
			return n
		}
		if total > 0 {
			if both {
				return math.Max(total/2, 1)
			}
			return total
		}
		return defaultLanes
	}

	forward = split("lanes:forward", fwd, bwd) * perLane
	backward = split("lanes:backward", bwd, fwd) * perLane
	return forward, backward
}

// wayInfo holds parsed way data collected during pass 1.
type wayInfo struct {
	nodeIDs  []osm.NodeID
	forward  float64
	backward float64
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	// BBox keeps only segments with both endpoints inside; zero keeps all.
	BBox     orb.Bound
	Progress graph.Progress
}

// Parse reads an OSM PBF file and returns car-accessible road segments with
// per-direction capacities. The reader is scanned twice, so it must be an
// io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opt ParseOptions) (*ParseResult, error) {
	logger := logging.FromContext(ctx)
	useBBox := opt.BBox != (orb.Bound{})

	// Pass 1: ways, and the node ids they reference.
	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok || len(w.Nodes) < 2 || !isCarAccessible(w.Tags) {
			continue
		}
		fwd, bwd := capacities(w.Tags)
		if fwd == 0 && bwd == 0 {
			continue
		}

		ids := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			ids[i] = wn.ID
			referenced[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{nodeIDs: ids, forward: fwd, backward: bwd})
		if len(ways)%progressEvery == 0 {
			opt.Progress.Report("ways", len(ways), 0)
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	logger.Debug("Pass 1 complete", "ways", len(ways), "referenced_nodes", len(referenced))

	// Pass 2: coordinates of referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	coords := make(map[osm.NodeID]orb.Point, len(referenced))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		coords[n.ID] = n.Point()
		if len(coords)%progressEvery == 0 {
			opt.Progress.Report("nodes", len(coords), len(referenced))
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	logger.Debug("Pass 2 complete", "coordinates", len(coords))

	return buildResult(ways, coords, useBBox, opt.BBox, logger), nil
}

const progressEvery = 10_000

// buildResult turns ways into capacity records. Only nodes used by a kept
// segment appear in the result.
func buildResult(ways []wayInfo, coords map[osm.NodeID]orb.Point, useBBox bool, bbox orb.Bound, logger *log.Logger) *ParseResult {
	used := make(map[osm.NodeID]struct{})
	var edges []graph.CapacityEdge
	var missing, outside int

	for _, w := range ways {
		for i := 0; i < len(w.nodeIDs)-1; i++ {
			from, to := w.nodeIDs[i], w.nodeIDs[i+1]
			a, okA := coords[from]
			b, okB := coords[to]
			if !okA || !okB {
				missing++
				continue
			}
			if useBBox && (!bbox.Contains(a) || !bbox.Contains(b)) {
				outside++
				continue
			}

			edges = append(edges, graph.CapacityEdge{
				From:             int64(from),
				To:               int64(to),
				Length:           geo.Haversine(a.Lat(), a.Lon(), b.Lat(), b.Lon()),
				ForwardCapacity:  w.forward,
				BackwardCapacity: w.backward,
			})
			used[from] = struct{}{}
			used[to] = struct{}{}
		}
	}

	if missing > 0 {
		logger.Warn("Skipped segments with missing node coordinates", "count", missing)
	}
	if outside > 0 {
		logger.Debug("Filtered segments outside bounding box", "count", outside)
	}

	nodes := make([]graph.Node, 0, len(used))
	for id := range used {
		p := coords[id]
		nodes = append(nodes, graph.Node{ID: int64(id), Lon: p.Lon(), Lat: p.Lat()})
	}
	slices.SortFunc(nodes, func(a, b graph.Node) int { return cmp.Compare(a.ID, b.ID) })

	return &ParseResult{Nodes: nodes, Edges: edges}
}
