// Package source turns external graph material into a *graph.Graph.
//
// Four inputs are supported: OSRM fixed-record binaries, OSM PBF extracts,
// a Neo4j road network and snapshots written by `flowmap prepare`. Load
// applies the shared post-processing (largest component, source
// resolution) so every input behaves the same downstream.
package source

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/azybler/flowmap/pkg/config"
	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/graph"
	"github.com/azybler/flowmap/pkg/logging"
)

// Source reads one kind of graph material.
type Source interface {
	// Name identifies the source in logs and cache keys.
	Name() string
	Graph(ctx context.Context, opts Options) (*graph.Graph, error)
}

// Options are shared by all sources.
type Options struct {
	Progress graph.Progress
	// Filter applies to capacity-rated inputs (OSM, Neo4j).
	Filter graph.Filter
	// LargestComponent drops every vertex outside the largest weakly
	// connected component.
	LargestComponent bool
	// SourceID is the external id of the shortest-path source. Nil selects
	// vertex 0.
	SourceID *int64
}

// Load reads src and resolves the source vertex. Resolution happens on the
// final graph, so a source dropped by LargestComponent is NOT_FOUND.
func Load(ctx context.Context, src Source, opts Options) (*graph.Graph, uint32, error) {
	logger := logging.FromContext(ctx)

	timer := logging.Start(logger)
	g, err := src.Graph(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	timer.Done("Graph loaded", "source", src.Name(), "nodes", g.NumNodes, "edges", g.NumEdges)

	if opts.LargestComponent && g.NumNodes > 0 {
		keep := graph.LargestComponent(g)
		before := g.NumNodes
		g = graph.FilterToComponent(g, keep)
		logger.Info("Kept largest component", "nodes", g.NumNodes, "dropped", before-g.NumNodes)
	}

	var source uint32
	if opts.SourceID != nil {
		source, err = g.Resolve(*opts.SourceID)
		if err != nil {
			return nil, 0, err
		}
	}
	return g, source, nil
}

// FromConfig picks the source named by in.Format.
func FromConfig(in config.Input, neo config.Neo4j) (Source, error) {
	switch in.Format {
	case "osrm":
		return OSRM{Path: in.Path}, nil
	case "osm":
		s := OSM{Path: in.Path}
		if len(in.BBox) == 4 {
			s.BBox = orb.Bound{
				Min: orb.Point{in.BBox[0], in.BBox[1]},
				Max: orb.Point{in.BBox[2], in.BBox[3]},
			}
		}
		return s, nil
	case "snapshot":
		return Snapshot{Path: in.Path}, nil
	case "neo4j":
		return Neo4j{URI: neo.URI, User: neo.User, Password: neo.Password, Database: neo.Database}, nil
	default:
		return nil, ferrors.New(ferrors.CodeInvalidInput, "unknown input format %q (want osrm, osm, snapshot or neo4j)", in.Format)
	}
}

// wrap tags err with code unless it already carries one.
func wrap(code ferrors.Code, err error, format string, args ...any) error {
	if ferrors.GetCode(err) != "" {
		return err
	}
	return ferrors.Wrap(code, err, format, args...)
}
