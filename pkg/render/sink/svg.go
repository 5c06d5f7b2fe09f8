// Package sink provides render.Canvas implementations that encode a flow
// map as a document.
//
//   - SVG: one <line> per edge, written by hand
//   - PNG: rasterized with fogleman/gg
//   - PDF: SVG converted by rsvg-convert (requires librsvg)
//
// Every sink buffers the page and writes it to its io.Writer on Close.
package sink

import (
	"bytes"
	"fmt"
	"io"

	"github.com/azybler/flowmap/pkg/render"
)

// SVG encodes lines as an SVG document.
type SVG struct {
	w     io.Writer
	buf   bytes.Buffer
	begun bool
}

var _ render.Canvas = (*SVG)(nil)

// NewSVG returns a canvas writing SVG to w.
func NewSVG(w io.Writer) *SVG {
	return &SVG{w: w}
}

func (s *SVG) Begin(width, height float64) error {
	fmt.Fprintf(&s.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&s.buf, `  <rect width="100%%" height="100%%" fill="white"/>`+"\n")
	fmt.Fprintf(&s.buf, `  <g stroke-linecap="round" fill="none">`+"\n")
	s.begun = true
	return nil
}

func (s *SVG) Line(x1, y1, x2, y2 float64, st render.Style) error {
	if !s.begun {
		return fmt.Errorf("svg: line before begin")
	}
	g := gray255(st.Gray)
	fmt.Fprintf(&s.buf, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="rgb(%d,%d,%d)" stroke-width="%.2f"/>`+"\n",
		x1, y1, x2, y2, g, g, g, st.Width)
	return nil
}

// Close finishes the document and writes it out. Nothing is written when
// Begin was never called.
func (s *SVG) Close() error {
	if !s.begun {
		return nil
	}
	s.buf.WriteString("  </g>\n</svg>\n")
	s.begun = false
	if _, err := s.w.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func gray255(g float64) int {
	v := int(g*255 + 0.5)
	return min(max(v, 0), 255)
}
