// Package render turns edge usage counts into stroked line commands on a
// Canvas. It projects, scales and orders; encoding the document is left to
// the canvas implementation (see package sink).
package render

import (
	"cmp"
	"math"
	"slices"

	"github.com/paulmach/orb"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/flow"
	"github.com/azybler/flowmap/pkg/geo"
	"github.com/azybler/flowmap/pkg/graph"
)

// Style is the stroke applied to one line.
type Style struct {
	Width float64 // page units
	Gray  float64 // 0 is black, 1 is white
}

// Canvas receives drawing commands. Begin is called once before any Line;
// Close is always called, also after a failed Begin or Line.
type Canvas interface {
	Begin(width, height float64) error
	Line(x1, y1, x2, y2 float64, s Style) error
	Close() error
}

// Line is a used edge with its endpoint coordinates.
type Line struct {
	From  orb.Point
	To    orb.Point
	Count int
}

// Options controls scaling and truncation.
type Options struct {
	MaxWidth float64 // stroke width of the busiest edge
	MinWidth float64 // floor for every stroke
	Keep     int     // draw only the Keep busiest lines; <= 0 draws all
	MinCount int     // skip lines used fewer than MinCount times
	Extent   float64 // longer page side
}

// DefaultOptions returns the settings used when the CLI is given none.
func DefaultOptions() Options {
	return Options{
		MaxWidth: 8,
		MinWidth: 0.5,
		Extent:   2000,
	}
}

func (o Options) validate() error {
	if !(o.MaxWidth > 0) || math.IsInf(o.MaxWidth, 0) {
		return ferrors.New(ferrors.CodeInvalidInput, "max width must be positive, got %v", o.MaxWidth)
	}
	if o.MinWidth < 0 || o.MinWidth > o.MaxWidth {
		return ferrors.New(ferrors.CodeInvalidInput, "min width %v must be within [0, %v]", o.MinWidth, o.MaxWidth)
	}
	if !(o.Extent > 0) || math.IsInf(o.Extent, 0) {
		return ferrors.New(ferrors.CodeInvalidInput, "extent must be positive, got %v", o.Extent)
	}
	return nil
}

// StrokeWidth scales count logarithmically so maxCount reaches MaxWidth.
// When maxCount is 1 every edge gets MinWidth.
func StrokeWidth(count, maxCount int, o Options) float64 {
	if maxCount <= 1 || count <= 1 {
		return o.MinWidth
	}
	w := o.MaxWidth * math.Log(float64(count)) / math.Log(float64(maxCount))
	return math.Max(w, o.MinWidth)
}

// Gray shades wider strokes darker.
func Gray(width, maxWidth float64) float64 {
	g := (maxWidth - width) / (1.5 * maxWidth)
	return math.Min(math.Max(g, 0), 1)
}

// Lines resolves usage keys to coordinates, keeping the usage order.
func Lines(usages []flow.Usage, nodes []graph.Node) ([]Line, error) {
	lines := make([]Line, len(usages))
	for i, u := range usages {
		if int(u.Key.A) >= len(nodes) || int(u.Key.B) >= len(nodes) {
			return nil, ferrors.New(ferrors.CodeInvalidInput, "edge %d-%d references a vertex outside %d nodes", u.Key.A, u.Key.B, len(nodes))
		}
		a, b := nodes[u.Key.A], nodes[u.Key.B]
		lines[i] = Line{
			From:  orb.Point{a.Lon, a.Lat},
			To:    orb.Point{b.Lon, b.Lat},
			Count: u.Count,
		}
	}
	return lines, nil
}

// Render draws a sorted usage list. See Draw.
func Render(c Canvas, usages []flow.Usage, nodes []graph.Node, bound orb.Bound, o Options) error {
	lines, err := Lines(usages, nodes)
	if err != nil {
		_ = c.Close()
		return err
	}
	return Draw(c, lines, bound, o)
}

// Draw projects lines into bound and strokes them in ascending count order,
// so the busiest edges are drawn last. c is closed on every return path.
func Draw(c Canvas, lines []Line, bound orb.Bound, o Options) (err error) {
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = ferrors.Wrap(ferrors.CodeRender, cerr, "close canvas")
		}
	}()

	if err := o.validate(); err != nil {
		return err
	}

	sorted := slices.Clone(lines)
	slices.SortStableFunc(sorted, func(a, b Line) int { return cmp.Compare(a.Count, b.Count) })
	if o.MinCount > 0 {
		i, _ := slices.BinarySearchFunc(sorted, o.MinCount, func(l Line, m int) int { return cmp.Compare(l.Count, m) })
		sorted = sorted[i:]
	}

	maxCount := 0
	if len(sorted) > 0 {
		maxCount = sorted[len(sorted)-1].Count
	}
	if o.Keep > 0 && o.Keep < len(sorted) {
		sorted = sorted[len(sorted)-o.Keep:]
	}

	proj := geo.NewEquirectangular(bound, o.Extent)
	if err := c.Begin(proj.Width, proj.Height); err != nil {
		return ferrors.Wrap(ferrors.CodeRender, err, "begin page")
	}

	for i, l := range sorted {
		x1, y1 := proj.Project(l.From)
		x2, y2 := proj.Project(l.To)
		w := StrokeWidth(l.Count, maxCount, o)
		if err := c.Line(x1, y1, x2, y2, Style{Width: w, Gray: Gray(w, o.MaxWidth)}); err != nil {
			return ferrors.Wrap(ferrors.CodeRender, err, "draw line %d of %d", i+1, len(sorted))
		}
	}
	return nil
}
