package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Equirectangular maps lon/lat onto a page. Longitudes are scaled by the
// cosine of the bound's mean latitude, which keeps city-sized extents
// close to true shape. Page y grows downward.
type Equirectangular struct {
	Width  float64
	Height float64

	minLon, maxLat float64
	cosLat         float64
	scale          float64 // page units per scaled degree
	offX, offY     float64
}

// NewEquirectangular fits b into a page whose longer side is extent units.
// The other side follows the bound's aspect ratio. An axis with no span
// gets the full extent and content is centered along it.
func NewEquirectangular(b orb.Bound, extent float64) Equirectangular {
	meanLat := (b.Min.Lat() + b.Max.Lat()) / 2
	p := Equirectangular{
		minLon: b.Min.Lon(),
		maxLat: b.Max.Lat(),
		cosLat: math.Cos(meanLat * math.Pi / 180),
	}

	spanX := (b.Max.Lon() - b.Min.Lon()) * p.cosLat
	spanY := b.Max.Lat() - b.Min.Lat()
	if span := math.Max(spanX, spanY); span > 0 {
		p.scale = extent / span
	}
	p.Width = spanX * p.scale
	p.Height = spanY * p.scale

	if p.Width == 0 {
		p.Width = extent
		p.offX = extent / 2
	}
	if p.Height == 0 {
		p.Height = extent
		p.offY = extent / 2
	}
	return p
}

// Project returns page coordinates for pt.
func (p Equirectangular) Project(pt orb.Point) (x, y float64) {
	x = p.offX + (pt.Lon()-p.minLon)*p.cosLat*p.scale
	y = p.offY + (p.maxLat-pt.Lat())*p.scale
	return x, y
}
