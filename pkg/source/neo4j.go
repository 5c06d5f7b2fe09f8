package source

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/geo"
	"github.com/azybler/flowmap/pkg/graph"
	"github.com/azybler/flowmap/pkg/logging"
)

// Neo4j reads a road network stored as
// (:Junction {id, lon, lat})-[:ROAD {length, capacity_forward, capacity_backward}]->(:Junction).
// A ROAD without length gets the haversine distance between its endpoints.
type Neo4j struct {
	URI      string
	User     string
	Password string
	Database string // empty selects the server default
}

const (
	junctionQuery = `
		MATCH (j:Junction)
		RETURN j.id AS id, j.lon AS lon, j.lat AS lat
		ORDER BY id`
	roadQuery = `
		MATCH (a:Junction)-[r:ROAD]->(b:Junction)
		RETURN a.id AS src, b.id AS dst,
		       coalesce(r.length, -1.0) AS length,
		       coalesce(r.capacity_forward, 0.0) AS fwd,
		       coalesce(r.capacity_backward, 0.0) AS bwd`
)

func (s Neo4j) Name() string { return "neo4j:" + s.URI }

func (s Neo4j) Graph(ctx context.Context, opts Options) (*graph.Graph, error) {
	driver, err := neo4j.NewDriverWithContext(s.URI, neo4j.BasicAuth(s.User, s.Password, ""))
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodeIO, err, "create neo4j driver")
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, ferrors.Wrap(ferrors.CodeIO, err, "connect to %s", s.URI)
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.Database,
	})
	defer session.Close(ctx)

	var (
		nodes []graph.Node
		roads []graph.CapacityEdge
	)
	// Both reads share one transaction so the graph is a consistent snapshot.
	_, err = session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodes, roads = nil, nil

		res, err := tx.Run(ctx, junctionQuery, nil)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			n, err := junction(res.Record())
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
			if len(nodes)%progressEvery == 0 {
				opts.Progress.Report("junctions", len(nodes), 0)
			}
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, roadQuery, nil)
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			e, err := road(res.Record())
			if err != nil {
				return nil, err
			}
			roads = append(roads, e)
			if len(roads)%progressEvery == 0 {
				opts.Progress.Report("roads", len(roads), 0)
			}
		}
		return nil, res.Err()
	})
	if err != nil {
		return nil, wrap(ferrors.CodeIO, err, "read road network")
	}

	if err := fillLengths(nodes, roads); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("Read road network", "junctions", len(nodes), "roads", len(roads))

	return graph.FromCapacity(nodes, roads, opts.Filter)
}

const progressEvery = 10_000

func junction(rec *neo4j.Record) (graph.Node, error) {
	id, err := integer(rec, "id")
	if err != nil {
		return graph.Node{}, err
	}
	lon, err := number(rec, "lon")
	if err != nil {
		return graph.Node{}, err
	}
	lat, err := number(rec, "lat")
	if err != nil {
		return graph.Node{}, err
	}
	return graph.Node{ID: id, Lon: lon, Lat: lat}, nil
}

func road(rec *neo4j.Record) (graph.CapacityEdge, error) {
	var (
		e   graph.CapacityEdge
		err error
	)
	if e.From, err = integer(rec, "src"); err != nil {
		return e, err
	}
	if e.To, err = integer(rec, "dst"); err != nil {
		return e, err
	}
	if e.Length, err = number(rec, "length"); err != nil {
		return e, err
	}
	if e.ForwardCapacity, err = number(rec, "fwd"); err != nil {
		return e, err
	}
	if e.BackwardCapacity, err = number(rec, "bwd"); err != nil {
		return e, err
	}
	return e, nil
}

// fillLengths replaces negative lengths with the haversine distance
// between the road's endpoints.
func fillLengths(nodes []graph.Node, roads []graph.CapacityEdge) error {
	var coords map[int64]graph.Node
	for i := range roads {
		if roads[i].Length >= 0 {
			continue
		}
		if coords == nil {
			coords = make(map[int64]graph.Node, len(nodes))
			for _, n := range nodes {
				coords[n.ID] = n
			}
		}
		a, okA := coords[roads[i].From]
		b, okB := coords[roads[i].To]
		if !okA || !okB {
			return ferrors.New(ferrors.CodeMalformedRecord,
				"road %d->%d references an unknown junction", roads[i].From, roads[i].To)
		}
		roads[i].Length = geo.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	}
	return nil
}

func integer(rec *neo4j.Record, key string) (int64, error) {
	v, ok := rec.Get(key)
	if !ok {
		return 0, ferrors.New(ferrors.CodeMalformedRecord, "record has no %q", key)
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	default:
		return 0, ferrors.New(ferrors.CodeMalformedRecord, "%q is %s, want integer", key, describe(v))
	}
}

func number(rec *neo4j.Record, key string) (float64, error) {
	v, ok := rec.Get(key)
	if !ok {
		return 0, ferrors.New(ferrors.CodeMalformedRecord, "record has no %q", key)
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, ferrors.New(ferrors.CodeMalformedRecord, "%q is %s, want number", key, describe(v))
	}
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
