// Package store persists edge-usage rows so a flow map can be redrawn or
// queried spatially after the run that produced it.
package store

import (
	"context"
	"net/url"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/flow"
	"github.com/azybler/flowmap/pkg/graph"
)

// Row is one used edge: its usage count and the straight segment between
// its endpoint coordinates.
type Row struct {
	Count int
	Line  orb.LineString
}

// Store saves and loads the rows of a run. Save is all-or-nothing.
type Store interface {
	Save(ctx context.Context, runID uuid.UUID, rows []Row) error
	Load(ctx context.Context, runID uuid.UUID) ([]Row, error)
	Close() error
}

// Rows converts aggregated usages to rows, keeping their order.
func Rows(usages []flow.Usage, nodes []graph.Node) ([]Row, error) {
	rows := make([]Row, len(usages))
	for i, u := range usages {
		if int(u.Key.A) >= len(nodes) || int(u.Key.B) >= len(nodes) {
			return nil, ferrors.New(ferrors.CodeMalformedRecord,
				"usage references vertex (%d,%d) outside %d nodes", u.Key.A, u.Key.B, len(nodes))
		}
		a, b := nodes[u.Key.A], nodes[u.Key.B]
		rows[i] = Row{
			Count: u.Count,
			Line:  orb.LineString{{a.Lon, a.Lat}, {b.Lon, b.Lat}},
		}
	}
	return rows, nil
}

// Open connects to the store named by rawURL. postgres:// and
// postgresql:// select PostGIS, mongodb:// and mongodb+srv:// select
// MongoDB.
func Open(ctx context.Context, rawURL string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodeInvalidInput, err, "parse store url")
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		s, err := NewPostGIS(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongodb", "mongodb+srv":
		s, err := NewMongo(ctx, rawURL, "")
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, ferrors.New(ferrors.CodeInvalidInput, "unsupported store scheme %q", u.Scheme)
	}
}
