package osm

import (
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCarAccessible(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "residential road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: true,
		},
		{
			name: "motorway",
			tags: osm.Tags{{Key: "highway", Value: "motorway"}},
			want: true,
		},
		{
			name: "trunk link",
			tags: osm.Tags{{Key: "highway", Value: "trunk_link"}},
			want: true,
		},
		{
			name: "footway (not car accessible)",
			tags: osm.Tags{{Key: "highway", Value: "footway"}},
			want: false,
		},
		{
			name: "cycleway",
			tags: osm.Tags{{Key: "highway", Value: "cycleway"}},
			want: false,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			want: false,
		},
		{
			name: "no access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "no"},
			},
			want: false,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motor_vehicle", Value: "no"},
			},
			want: false,
		},
		{
			name: "area=yes (pedestrian plaza)",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "area", Value: "yes"},
			},
			want: false,
		},
		{
			name: "service road",
			tags: osm.Tags{{Key: "highway", Value: "service"}},
			want: true,
		},
		{
			name: "living_street",
			tags: osm.Tags{{Key: "highway", Value: "living_street"}},
			want: true,
		},
		{
			name: "no highway tag",
			tags: osm.Tags{{Key: "name", Value: "Some Street"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isCarAccessible(tt.tags)
			if got != tt.want {
				t.Errorf("isCarAccessible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectionFlags(t *testing.T) {
	tests := []struct {
		name         string
		tags         osm.Tags
		wantForward  bool
		wantBackward bool
	}{
		{
			name:         "default bidirectional",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			wantForward:  true,
			wantBackward: true,
		},
		{
			name:         "motorway implied oneway",
			tags: osm.Tags{{Key: "highway", Value: "motorway"}},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name:         "motorway_link implied oneway",
			tags: osm.Tags{{Key: "highway", Value: "motorway_link"}},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name:         "roundabout implied oneway",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "junction", Value: "roundabout"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name:         "explicit oneway=yes",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "yes"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name:         "explicit oneway=true",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "true"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name:         "explicit oneway=1",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "1"},
			},
			wantForward:  true,
			wantBackward: false,
		},
		{
			name:         "explicit oneway=-1 (reverse)",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "-1"},
			},
			wantForward:  false,
			wantBackward: true,
		},
		{
			name:         "explicit oneway=reverse",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "reverse"},
			},
			wantForward:  false,
			wantBackward: true,
		},
		{
			name:         "explicit oneway=no overrides implied",
			tags: osm.Tags{
				{Key: "highway", Value: "motorway"},
				{Key: "oneway", Value: "no"},
			},
			wantForward:  true,
			wantBackward: true,
		},
		{
			name:         "oneway=reversible skips entirely",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "reversible"},
			},
			wantForward:  false,
			wantBackward: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, bwd := directionFlags(tt.tags)
			if fwd != tt.wantForward || bwd != tt.wantBackward {
				t.Errorf("directionFlags() = (%v, %v), want (%v, %v)", fwd, bwd, tt.wantForward, tt.wantBackward)
			}
		})
	}
}

func TestCapacities(t *testing.T) {
	tests := []struct {
		name         string
		tags         osm.Tags
		wantForward  float64
		wantBackward float64
	}{
		{
			name:         "untagged residential, one lane each way",
			tags:         osm.Tags{{Key: "highway", Value: "residential"}},
			wantForward:  0.8,
			wantBackward: 0.8,
		},
		{
			name:         "motorway defaults to two lanes, one way",
			tags:         osm.Tags{{Key: "highway", Value: "motorway"}},
			wantForward:  4.0,
			wantBackward: 0,
		},
		{
			name: "total lanes split across directions",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "lanes", Value: "4"},
			},
			wantForward:  3.0,
			wantBackward: 3.0,
		},
		{
			name: "odd lane count never drops below one",
			tags: osm.Tags{
				{Key: "highway", Value: "tertiary"},
				{Key: "lanes", Value: "1"},
			},
			wantForward:  1.0,
			wantBackward: 1.0,
		},
		{
			name: "explicit per-direction lanes",
			tags: osm.Tags{
				{Key: "highway", Value: "secondary"},
				{Key: "lanes", Value: "3"},
				{Key: "lanes:forward", Value: "2"},
				{Key: "lanes:backward", Value: "1"},
			},
			wantForward:  2.4,
			wantBackward: 1.2,
		},
		{
			name: "oneway keeps all lanes forward",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "yes"},
				{Key: "lanes", Value: "3"},
			},
			wantForward:  4.5,
			wantBackward: 0,
		},
		{
			name: "reverse oneway",
			tags: osm.Tags{
				{Key: "highway", Value: "tertiary"},
				{Key: "oneway", Value: "-1"},
			},
			wantForward:  0,
			wantBackward: 1.0,
		},
		{
			name: "semicolon lanes take the first value",
			tags: osm.Tags{
				{Key: "highway", Value: "trunk"},
				{Key: "oneway", Value: "yes"},
				{Key: "lanes", Value: "2;3"},
			},
			wantForward:  3.6,
			wantBackward: 0,
		},
		{
			name: "garbage lanes fall back to default",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "lanes", Value: "many"},
			},
			wantForward:  0.8,
			wantBackward: 0.8,
		},
		{
			name: "reversible is dropped",
			tags: osm.Tags{
				{Key: "highway", Value: "primary"},
				{Key: "oneway", Value: "reversible"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, bwd := capacities(tt.tags)
			assert.InDelta(t, tt.wantForward, fwd, 1e-9, "forward")
			assert.InDelta(t, tt.wantBackward, bwd, 1e-9, "backward")
		})
	}
}

func TestBuildResult(t *testing.T) {
	coords := map[osm.NodeID]orb.Point{
		3: {103.8200, 1.3500},
		1: {103.8198, 1.3521},
		2: {103.8198, 1.3530},
		9: {110.0000, 5.0000},
	}
	ways := []wayInfo{
		{nodeIDs: []osm.NodeID{1, 2, 3}, forward: 1, backward: 0.5},
		// Node 7 has no coordinates.
		{nodeIDs: []osm.NodeID{3, 7}, forward: 1},
		{nodeIDs: []osm.NodeID{3, 9}, forward: 2},
	}
	logger := log.New(io.Discard)

	res := buildResult(ways, coords, false, orb.Bound{}, logger)
	require.Len(t, res.Edges, 3)
	require.Len(t, res.Nodes, 4)
	for i := 1; i < len(res.Nodes); i++ {
		assert.Less(t, res.Nodes[i-1].ID, res.Nodes[i].ID, "nodes sorted by id")
	}

	first := res.Edges[0]
	assert.Equal(t, int64(1), first.From)
	assert.Equal(t, int64(2), first.To)
	assert.InDelta(t, 100, first.Length, 1, "~100 m segment")
	assert.Equal(t, 0.5, first.BackwardCapacity)

	bbox := orb.Bound{Min: orb.Point{103, 1}, Max: orb.Point{104, 2}}
	res = buildResult(ways, coords, true, bbox, logger)
	assert.Len(t, res.Edges, 2, "segment to node 9 lies outside the box")
	assert.Len(t, res.Nodes, 3)
	for _, e := range res.Edges {
		assert.False(t, math.IsNaN(e.Length))
	}
}

