package render

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/flow"
	"github.com/azybler/flowmap/pkg/graph"
)

type stroke struct {
	x1, y1, x2, y2 float64
	style          Style
}

// recorder is a Canvas that keeps every command and can fail on demand.
type recorder struct {
	width, height float64
	strokes       []stroke
	closed        int

	failBegin error
	failLine  int // 1-based index of the Line call that fails; 0 never
	failClose error
}

func (r *recorder) Begin(w, h float64) error {
	r.width, r.height = w, h
	return r.failBegin
}

func (r *recorder) Line(x1, y1, x2, y2 float64, s Style) error {
	r.strokes = append(r.strokes, stroke{x1, y1, x2, y2, s})
	if r.failLine == len(r.strokes) {
		return errors.New("disk full")
	}
	return nil
}

func (r *recorder) Close() error {
	r.closed++
	return r.failClose
}

var fixtureNodes = []graph.Node{
	{ID: 1, Lon: 2.00, Lat: 48.00},
	{ID: 2, Lon: 2.01, Lat: 48.00},
	{ID: 3, Lon: 2.01, Lat: 48.01},
	{ID: 4, Lon: 2.02, Lat: 48.01},
}

var fixtureUsages = []flow.Usage{
	{Key: flow.EdgeKey{A: 2, B: 3}, Count: 1},
	{Key: flow.EdgeKey{A: 1, B: 2}, Count: 2},
	{Key: flow.EdgeKey{A: 0, B: 1}, Count: 3},
}

var fixtureBound = orb.Bound{Min: orb.Point{2.00, 48.00}, Max: orb.Point{2.02, 48.01}}

func TestRenderDrawsAscending(t *testing.T) {
	c := &recorder{}
	opts := DefaultOptions()
	require.NoError(t, Render(c, fixtureUsages, fixtureNodes, fixtureBound, opts))

	assert.Equal(t, 1, c.closed)
	assert.Equal(t, opts.Extent, c.width)
	assert.Greater(t, c.height, 0.0)
	require.Len(t, c.strokes, 3)

	for i := 1; i < len(c.strokes); i++ {
		assert.GreaterOrEqual(t, c.strokes[i].style.Width, c.strokes[i-1].style.Width, "widths ascend")
		assert.LessOrEqual(t, c.strokes[i].style.Gray, c.strokes[i-1].style.Gray, "busier is darker")
	}
	last := c.strokes[2]
	assert.Equal(t, opts.MaxWidth, last.style.Width)
	assert.Equal(t, 0.0, last.style.Gray)

	// The busiest edge starts at the west edge of the page.
	assert.InDelta(t, 0, last.x1, 1e-9)
	assert.InDelta(t, c.height, last.y1, 1e-9)
}

func TestRenderSingleUseMinWidth(t *testing.T) {
	usages := []flow.Usage{
		{Key: flow.EdgeKey{A: 0, B: 1}, Count: 1},
		{Key: flow.EdgeKey{A: 1, B: 2}, Count: 1},
	}
	c := &recorder{}
	opts := DefaultOptions()
	require.NoError(t, Render(c, usages, fixtureNodes, fixtureBound, opts))

	require.Len(t, c.strokes, 2)
	for _, s := range c.strokes {
		assert.Equal(t, opts.MinWidth, s.style.Width)
		assert.False(t, math.IsNaN(s.style.Gray))
		assert.Greater(t, s.style.Width, 0.0)
	}
}

func TestRenderKeep(t *testing.T) {
	c := &recorder{}
	opts := DefaultOptions()
	opts.Keep = 2
	require.NoError(t, Render(c, fixtureUsages, fixtureNodes, fixtureBound, opts))

	require.Len(t, c.strokes, 2)
	// Kept lines are counts 2 and 3, with 3 drawn last at full width.
	assert.Equal(t, StrokeWidth(2, 3, opts), c.strokes[0].style.Width)
	assert.Equal(t, opts.MaxWidth, c.strokes[1].style.Width)
}

func TestDrawSortsUnorderedLines(t *testing.T) {
	lines := []Line{
		{From: orb.Point{0, 0}, To: orb.Point{1, 1}, Count: 9},
		{From: orb.Point{0, 0}, To: orb.Point{1, 0}, Count: 2},
		{From: orb.Point{0, 1}, To: orb.Point{1, 1}, Count: 5},
	}
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	c := &recorder{}
	opts := DefaultOptions()
	opts.MinCount = 3
	require.NoError(t, Draw(c, lines, bound, opts))

	require.Len(t, c.strokes, 2, "count 2 is below MinCount")
	assert.Less(t, c.strokes[0].style.Width, c.strokes[1].style.Width)
}

func TestDrawEmpty(t *testing.T) {
	c := &recorder{}
	bound := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{1, 1}}
	require.NoError(t, Draw(c, nil, bound, DefaultOptions()))
	assert.Empty(t, c.strokes)
	assert.Equal(t, c.width, c.height, "point bound yields a square page")
	assert.Equal(t, 1, c.closed)
}

func TestDrawClosesOnError(t *testing.T) {
	closeErr := errors.New("flush failed")

	tests := []struct {
		name      string
		canvas    *recorder
		opts      func(*Options)
		wantCode  ferrors.Code
		wantClose bool // close error surfaces
	}{
		{"line fails", &recorder{failLine: 2}, nil, ferrors.CodeRender, false},
		{"line fails, close also fails", &recorder{failLine: 1, failClose: closeErr}, nil, ferrors.CodeRender, false},
		{"begin fails", &recorder{failBegin: errors.New("no page")}, nil, ferrors.CodeRender, false},
		{"only close fails", &recorder{failClose: closeErr}, nil, ferrors.CodeRender, true},
		{"bad options", &recorder{}, func(o *Options) { o.MaxWidth = 0 }, ferrors.CodeInvalidInput, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			err := Render(tt.canvas, fixtureUsages, fixtureNodes, fixtureBound, opts)
			require.Error(t, err)
			assert.True(t, ferrors.Is(err, tt.wantCode), "err = %v", err)
			assert.Equal(t, tt.wantClose, errors.Is(err, closeErr))
			assert.Equal(t, 1, tt.canvas.closed, "canvas must be closed exactly once")
		})
	}
}

func TestRenderRejectsUnknownVertex(t *testing.T) {
	c := &recorder{}
	usages := []flow.Usage{{Key: flow.EdgeKey{A: 0, B: 9}, Count: 1}}
	err := Render(c, usages, fixtureNodes, fixtureBound, DefaultOptions())
	assert.True(t, ferrors.Is(err, ferrors.CodeInvalidInput))
	assert.Equal(t, 1, c.closed)
}

func TestStrokeWidth(t *testing.T) {
	o := Options{MaxWidth: 10, MinWidth: 1, Extent: 100}
	tests := []struct {
		count, max int
		want       float64
	}{
		{1, 1, 1},
		{1, 100, 1},
		{100, 100, 10},
		{10, 100, 5},
		{2, 1_000_000, 1}, // clamped to the floor
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, StrokeWidth(tt.count, tt.max, o), 1e-9, "count=%d max=%d", tt.count, tt.max)
	}
}

func TestGray(t *testing.T) {
	assert.Equal(t, 0.0, Gray(10, 10))
	assert.InDelta(t, 1.0/3, Gray(5, 10), 1e-9)
	assert.InDelta(t, 2.0/3, Gray(0, 10), 1e-9)
}
