package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/azybler/flowmap/pkg/logging"
	"github.com/azybler/flowmap/pkg/render"
	"github.com/azybler/flowmap/pkg/store"
)

// Redraw renders a persisted run without touching the graph. The canvas is
// closed on every path.
func Redraw(ctx context.Context, st store.Store, runID uuid.UUID, c render.Canvas, o render.Options) error {
	timer := logging.Start(logging.FromContext(ctx))

	rows, err := st.Load(ctx, runID)
	if err != nil {
		if cerr := c.Close(); cerr != nil {
			logging.FromContext(ctx).Warn("Closing canvas failed", "err", cerr)
		}
		return err
	}

	lines, bound := linesFromRows(rows)
	if err := render.Draw(c, lines, bound, o); err != nil {
		return err
	}
	timer.Done("Redrew run", "run_id", runID, "lines", len(lines))
	return nil
}

// linesFromRows uses the first and last point of each row and the union of
// every row's bound.
func linesFromRows(rows []store.Row) ([]render.Line, orb.Bound) {
	lines := make([]render.Line, 0, len(rows))
	var bound orb.Bound
	for _, r := range rows {
		if len(r.Line) < 2 {
			continue
		}
		lines = append(lines, render.Line{From: r.Line[0], To: r.Line[len(r.Line)-1], Count: r.Count})
		if len(lines) == 1 {
			bound = r.Line.Bound()
		} else {
			bound = bound.Union(r.Line.Bound())
		}
	}
	return lines, bound
}
