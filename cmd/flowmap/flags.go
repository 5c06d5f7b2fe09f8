package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/azybler/flowmap/pkg/cache"
	"github.com/azybler/flowmap/pkg/config"
	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/logging"
	"github.com/azybler/flowmap/pkg/render/sink"
	"github.com/azybler/flowmap/pkg/store"
)

// Flags override the config file only when given on the command line.

type inputFlags struct {
	path             string
	format           string
	bbox             string
	largestComponent bool
	minCapacity      float64
}

func (f *inputFlags) register(cmd *cobra.Command, pathFlag, defaultFormat string) {
	cmd.Flags().StringVar(&f.path, pathFlag, "", "graph input file")
	cmd.Flags().StringVar(&f.format, "input-format", defaultFormat, "input format: osrm, osm, snapshot or neo4j")
	cmd.Flags().StringVar(&f.bbox, "bbox", "", "OSM bounding box: minLon,minLat,maxLon,maxLat")
	cmd.Flags().BoolVar(&f.largestComponent, "largest-component", false, "keep only the largest connected component")
	cmd.Flags().Float64Var(&f.minCapacity, "min-capacity", 0, "drop road directions rated below this capacity")
}

func (f *inputFlags) apply(cmd *cobra.Command, pathFlag string, in *config.Input) error {
	fs := cmd.Flags()
	if fs.Changed(pathFlag) {
		in.Path = f.path
	}
	if fs.Changed("input-format") || in.Format == "" {
		in.Format = f.format
	}
	if fs.Changed("bbox") {
		b, err := parseFloats(f.bbox, 4)
		if err != nil {
			return ferrors.Wrap(ferrors.CodeInvalidInput, err, "--bbox")
		}
		in.BBox = b
	}
	if fs.Changed("largest-component") {
		in.LargestComponent = f.largestComponent
	}
	if fs.Changed("min-capacity") {
		in.MinCapacity = f.minCapacity
	}
	if in.Path == "" && in.Format != "neo4j" {
		return ferrors.New(ferrors.CodeInvalidInput, "no graph input given (--%s)", pathFlag)
	}
	return nil
}

type renderFlags struct {
	out      string
	format   string
	maxWidth float64
	minWidth float64
	keep     int
	minCount int
	extent   float64
}

func (f *renderFlags) register(cmd *cobra.Command) {
	d := config.Default().Render
	cmd.Flags().StringVarP(&f.out, "out", "o", d.Out, "output document")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: svg, png or pdf (default from --out extension)")
	cmd.Flags().Float64Var(&f.maxWidth, "max-width", d.MaxWidth, "stroke width of the busiest edge")
	cmd.Flags().Float64Var(&f.minWidth, "min-width", d.MinWidth, "minimum stroke width")
	cmd.Flags().IntVar(&f.keep, "keep", d.Keep, "draw only the K busiest edges (0 draws all)")
	cmd.Flags().IntVar(&f.minCount, "min-count", d.MinCount, "skip edges used fewer times")
	cmd.Flags().Float64Var(&f.extent, "extent", d.Extent, "length of the longer page side")
}

func (f *renderFlags) apply(cmd *cobra.Command, r *config.Render) {
	fs := cmd.Flags()
	if fs.Changed("out") {
		r.Out = f.out
	}
	if fs.Changed("format") {
		r.Format = f.format
	}
	if fs.Changed("max-width") {
		r.MaxWidth = f.maxWidth
	}
	if fs.Changed("min-width") {
		r.MinWidth = f.minWidth
	}
	if fs.Changed("keep") {
		r.Keep = f.keep
	}
	if fs.Changed("min-count") {
		r.MinCount = f.minCount
	}
	if fs.Changed("extent") {
		r.Extent = f.extent
	}
}

// parseFloats parses exactly n comma-separated numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, ferrors.New(ferrors.CodeInvalidInput, "want %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.CodeInvalidInput, err, "number %d of %q", i+1, s)
		}
		out[i] = v
	}
	return out, nil
}

// openOutput creates the document for r. The caller must call finishOutput.
func openOutput(r config.Render) (*os.File, sink.Format, error) {
	format, err := sink.ParseFormat(r.Format, r.Out)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Create(r.Out)
	if err != nil {
		return nil, "", ferrors.Wrap(ferrors.CodeRender, err, "create %s", r.Out)
	}
	return f, format, nil
}

// finishOutput closes f and removes it when the run failed.
func finishOutput(f *os.File, runErr error) error {
	cerr := f.Close()
	if runErr != nil {
		_ = os.Remove(f.Name())
		return runErr
	}
	if cerr != nil {
		return ferrors.Wrap(ferrors.CodeRender, cerr, "close %s", f.Name())
	}
	return nil
}

// openCache builds the configured cache. A cache that cannot be opened is
// replaced by the null cache.
func openCache(ctx context.Context, cfg config.Config) cache.Cache {
	logger := logging.FromContext(ctx)
	switch cfg.Cache.Kind {
	case "file":
		dir := cfg.Cache.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				base = os.TempDir()
			}
			dir = filepath.Join(base, "flowmap")
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			logger.Warn("File cache unavailable, continuing without", "err", err)
			return cache.NewNullCache()
		}
		logger.Debug("Using file cache", "dir", dir)
		return c
	case "redis":
		c, err := cache.NewRedisCache(ctx, cfg.Cache.URL, "flowmap:")
		if err != nil {
			logger.Warn("Redis cache unavailable, continuing without", "err", err)
			return cache.NewNullCache()
		}
		return c
	default:
		return cache.NewNullCache()
	}
}

// openStore returns nil when persistence is disabled.
func openStore(ctx context.Context, url string) (store.Store, error) {
	if url == "" || url == "none" {
		return nil, nil
	}
	return store.Open(ctx, url)
}
