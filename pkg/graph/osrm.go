package graph

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	ferrors "github.com/azybler/flowmap/pkg/errors"
)

// OSRM fixed-record layout (little endian).
const (
	osrmHeaderSize = 156
	osrmNodeSize   = 16 // int32 lat*1e6, int32 lon*1e6, uint32 id, 4 bytes padding
	osrmEdgeSize   = 20 // uint32 source, uint32 target, 4 pad, uint32 weight, 4 pad

	progressEvery = 1000
)

// Progress receives side-channel loading updates. It must not influence
// the loaded graph.
type Progress func(stage string, done, total int)

// Report calls p when it is set.
func (p Progress) Report(stage string, done, total int) {
	if p != nil {
		p(stage, done, total)
	}
}

// ReadOSRM reads node and edge records in the OSRM fixed-record layout.
// Node ids are the 32-bit external ids; edge endpoints are record indices.
func ReadOSRM(r io.Reader, progress Progress) ([]Node, []Edge, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	if _, err := br.Discard(osrmHeaderSize); err != nil {
		return nil, nil, ioErr(err, "skip header")
	}

	var rec [osrmEdgeSize]byte

	nodeCount, err := readCount(br, rec[:4])
	if err != nil {
		return nil, nil, ioErr(err, "read node count")
	}
	if nodeCount > maxNodes {
		return nil, nil, ferrors.New(ferrors.CodeMalformedRecord, "node count %d exceeds limit %d", nodeCount, maxNodes)
	}

	nodes := make([]Node, nodeCount)
	for i := range nodes {
		if _, err := io.ReadFull(br, rec[:osrmNodeSize]); err != nil {
			return nil, nil, ioErr(err, "read node %d of %d", i, nodeCount)
		}
		lat := int32(binary.LittleEndian.Uint32(rec[0:4]))
		lon := int32(binary.LittleEndian.Uint32(rec[4:8]))
		nodes[i] = Node{
			ID:  int64(binary.LittleEndian.Uint32(rec[8:12])),
			Lon: float64(lon) / 1e6,
			Lat: float64(lat) / 1e6,
		}
		if i%progressEvery == 0 {
			progress.Report("nodes", i, int(nodeCount))
		}
	}
	progress.Report("nodes", int(nodeCount), int(nodeCount))

	edgeCount, err := readCount(br, rec[:4])
	if err != nil {
		return nil, nil, ioErr(err, "read edge count")
	}
	if edgeCount > maxEdges {
		return nil, nil, ferrors.New(ferrors.CodeMalformedRecord, "edge count %d exceeds limit %d", edgeCount, maxEdges)
	}

	edges := make([]Edge, edgeCount)
	for i := range edges {
		if _, err := io.ReadFull(br, rec[:osrmEdgeSize]); err != nil {
			return nil, nil, ioErr(err, "read edge %d of %d", i, edgeCount)
		}
		edges[i] = Edge{
			Source: binary.LittleEndian.Uint32(rec[0:4]),
			Target: binary.LittleEndian.Uint32(rec[4:8]),
			Weight: float64(binary.LittleEndian.Uint32(rec[12:16])),
		}
		if i%progressEvery == 0 {
			progress.Report("edges", i, int(edgeCount))
		}
	}
	progress.Report("edges", int(edgeCount), int(edgeCount))

	return nodes, edges, nil
}

func readCount(r io.Reader, buf []byte) (uint32, error) {
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func ioErr(err error, format string, args ...any) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return ferrors.Wrap(ferrors.CodeIO, err, format, args...)
}
