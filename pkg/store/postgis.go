package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/encoding/wkt"

	ferrors "github.com/azybler/flowmap/pkg/errors"
)

const (
	createEdgeUse      = `CREATE TABLE IF NOT EXISTS edge_use (
	run_id uuid NOT NULL,
	count  integer NOT NULL,
	geom   geometry(LINESTRING, 4326) NOT NULL
)`
	createEdgeUseRunID = `CREATE INDEX IF NOT EXISTS edge_use_run_id ON edge_use (run_id)`
	insertEdgeUse      = `INSERT INTO edge_use (run_id, count, geom) VALUES ($1, $2, ST_GeomFromText($3, 4326))`
	selectEdgeUse      = `SELECT count, ST_AsText(geom) FROM edge_use WHERE run_id = $1 ORDER BY count, ST_AsText(geom)`
)

// schema runs in order when a PostGIS store opens.
var schema = []string{createEdgeUse, createEdgeUseRunID}

// PostGIS stores rows in the edge_use table of a PostGIS database.
type PostGIS struct {
	conn *pgx.Conn
}

// NewPostGIS connects to connString and makes sure edge_use and its run_id
// index exist.
func NewPostGIS(ctx context.Context, connString string) (*PostGIS, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodePersistence, err, "connect postgis")
	}
	for _, stmt := range schema {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			_ = conn.Close(ctx)
			return nil, ferrors.Wrap(ferrors.CodePersistence, err, "prepare edge_use schema")
		}
	}
	return &PostGIS{conn: conn}, nil
}

// Save inserts every row in one transaction. Any failure rolls it back.
func (p *PostGIS) Save(ctx context.Context, runID uuid.UUID, rows []Row) error {
	err := pgx.BeginFunc(ctx, p.conn, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range rows {
			batch.Queue(insertEdgeUse, runID, r.Count, wkt.MarshalString(r.Line))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return ferrors.Wrap(ferrors.CodePersistence, err, "save run %s", runID)
	}
	return nil
}

// Load returns the rows of a run ordered by count. A run without rows is
// NOT_FOUND.
func (p *PostGIS) Load(ctx context.Context, runID uuid.UUID) ([]Row, error) {
	rows, err := p.conn.Query(ctx, selectEdgeUse, runID)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodePersistence, err, "load run %s", runID)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var (
			count int
			text  string
		)
		if err := row.Scan(&count, &text); err != nil {
			return Row{}, err
		}
		ls, err := wkt.UnmarshalLineString(text)
		if err != nil {
			return Row{}, fmt.Errorf("geometry %q: %w", text, err)
		}
		return Row{Count: count, Line: ls}, nil
	})
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodePersistence, err, "load run %s", runID)
	}
	if len(out) == 0 {
		return nil, ferrors.New(ferrors.CodeNotFound, "no rows for run %s", runID)
	}
	return out, nil
}

func (p *PostGIS) Close() error {
	return p.conn.Close(context.Background())
}

var _ Store = (*PostGIS)(nil)
