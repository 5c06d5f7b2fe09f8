package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestEquirectangularPage(t *testing.T) {
	b := orb.Bound{Min: orb.Point{2.0, 48.0}, Max: orb.Point{3.0, 49.0}}
	p := NewEquirectangular(b, 1000)

	// At ~48.5°N a degree of longitude is ~0.66 of a degree of latitude,
	// so the page is taller than wide and the height takes the extent.
	if p.Height != 1000 {
		t.Errorf("Height = %v, want 1000", p.Height)
	}
	wantW := 1000 * math.Cos(48.5*math.Pi/180)
	if math.Abs(p.Width-wantW) > 1e-6 {
		t.Errorf("Width = %v, want %v", p.Width, wantW)
	}

	tests := []struct {
		name string
		pt   orb.Point
		x, y float64
	}{
		{"north-west corner", orb.Point{2.0, 49.0}, 0, 0},
		{"south-east corner", orb.Point{3.0, 48.0}, wantW, 1000},
		{"center", orb.Point{2.5, 48.5}, wantW / 2, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := p.Project(tt.pt)
			if math.Abs(x-tt.x) > 1e-6 || math.Abs(y-tt.y) > 1e-6 {
				t.Errorf("Project(%v) = (%v, %v), want (%v, %v)", tt.pt, x, y, tt.x, tt.y)
			}
		})
	}
}

func TestEquirectangularDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		b     orb.Bound
		pt    orb.Point
		wantX float64
		wantY float64
	}{
		{"single point", orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{1, 1}}, orb.Point{1, 1}, 50, 50},
		{"vertical line", orb.Bound{Min: orb.Point{1, 0}, Max: orb.Point{1, 2}}, orb.Point{1, 2}, 50, 0},
		{"horizontal line", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 0}}, orb.Point{0, 0}, 0, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewEquirectangular(tt.b, 100)
			if p.Width != 100 || p.Height != 100 {
				t.Errorf("page = %vx%v, want square 100x100", p.Width, p.Height)
			}
			x, y := p.Project(tt.pt)
			if math.Abs(x-tt.wantX) > 1e-9 || math.Abs(y-tt.wantY) > 1e-9 {
				t.Errorf("Project = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestEquirectangularLongerSideIsExtent(t *testing.T) {
	tests := []struct {
		name string
		b    orb.Bound
	}{
		{"tall and narrow", orb.Bound{Min: orb.Point{2.0, 48.0}, Max: orb.Point{2.00001, 49.0}}},
		{"wide and flat", orb.Bound{Min: orb.Point{2.0, 48.0}, Max: orb.Point{4.0, 48.00001}}},
		{"square-ish", orb.Bound{Min: orb.Point{2.0, 48.0}, Max: orb.Point{2.02, 48.01}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewEquirectangular(tt.b, 2000)
			if longer := math.Max(p.Width, p.Height); math.Abs(longer-2000) > 1e-6 {
				t.Errorf("page = %vx%v, want longer side 2000", p.Width, p.Height)
			}
			for _, pt := range []orb.Point{tt.b.Min, tt.b.Max} {
				x, y := p.Project(pt)
				if x < -1e-6 || x > p.Width+1e-6 || y < -1e-6 || y > p.Height+1e-6 {
					t.Errorf("Project(%v) = (%v, %v) falls off the %vx%v page", pt, x, y, p.Width, p.Height)
				}
			}
		})
	}
}
