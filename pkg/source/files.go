package source

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/paulmach/orb"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/graph"
	"github.com/azybler/flowmap/pkg/osm"
)

// OSRM reads the fixed-record binary layout.
type OSRM struct {
	Path string
}

func (s OSRM) Name() string { return "osrm:" + s.Path }

func (s OSRM) Graph(_ context.Context, opts Options) (*graph.Graph, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodeIO, err, "open %s", s.Path)
	}
	defer f.Close()

	nodes, edges, err := graph.ReadOSRM(f, opts.Progress)
	if err != nil {
		return nil, wrap(ferrors.CodeIO, err, "read %s", s.Path)
	}
	return graph.FromEdges(nodes, edges)
}

// OSM reads car-accessible roads from an OSM PBF extract.
type OSM struct {
	Path string
	BBox orb.Bound // zero keeps everything
}

func (s OSM) Name() string { return "osm:" + s.Path }

func (s OSM) Graph(ctx context.Context, opts Options) (*graph.Graph, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodeIO, err, "open %s", s.Path)
	}
	defer f.Close()

	res, err := osm.Parse(ctx, f, osm.ParseOptions{BBox: s.BBox, Progress: opts.Progress})
	if err != nil {
		return nil, wrap(ferrors.CodeIO, err, "parse %s", s.Path)
	}
	return graph.FromCapacity(res.Nodes, res.Edges, opts.Filter)
}

// Snapshot reads a graph written by graph.WriteBinary.
type Snapshot struct {
	Path string
}

func (s Snapshot) Name() string { return "snapshot:" + s.Path }

func (s Snapshot) Graph(_ context.Context, _ Options) (*graph.Graph, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.CodeIO, err, "open %s", s.Path)
	}
	defer f.Close()

	g, err := graph.ReadBinary(f)
	if err != nil {
		code := ferrors.CodeMalformedRecord
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			code = ferrors.CodeIO
		}
		return nil, wrap(code, err, "read snapshot %s", s.Path)
	}
	return g, nil
}
