package sink

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/azybler/flowmap/pkg/render"
)

// maxPixels caps the raster size so a misconfigured extent cannot exhaust
// memory (4 bytes per pixel).
const maxPixels = 16_000 * 16_000

// PNG rasterizes lines on a white background.
type PNG struct {
	w  io.Writer
	dc *gg.Context
}

var _ render.Canvas = (*PNG)(nil)

// NewPNG returns a canvas writing PNG to w.
func NewPNG(w io.Writer) *PNG {
	return &PNG{w: w}
}

func (p *PNG) Begin(width, height float64) error {
	wi, hi := int(math.Ceil(width)), int(math.Ceil(height))
	if wi <= 0 || hi <= 0 || wi*hi > maxPixels {
		return fmt.Errorf("png: unsupported page size %dx%d", wi, hi)
	}
	p.dc = gg.NewContext(wi, hi)
	p.dc.SetRGB(1, 1, 1)
	p.dc.Clear()
	p.dc.SetLineCapRound()
	return nil
}

func (p *PNG) Line(x1, y1, x2, y2 float64, st render.Style) error {
	if p.dc == nil {
		return fmt.Errorf("png: line before begin")
	}
	p.dc.SetRGB(st.Gray, st.Gray, st.Gray)
	p.dc.SetLineWidth(st.Width)
	p.dc.DrawLine(x1, y1, x2, y2)
	p.dc.Stroke()
	return nil
}

func (p *PNG) Close() error {
	if p.dc == nil {
		return nil
	}
	dc := p.dc
	p.dc = nil
	if err := dc.EncodePNG(p.w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
