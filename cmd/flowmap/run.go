package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azybler/flowmap/pkg/flow"
	"github.com/azybler/flowmap/pkg/logging"
	"github.com/azybler/flowmap/pkg/pipeline"
	"github.com/azybler/flowmap/pkg/render/sink"
	"github.com/azybler/flowmap/pkg/source"
)

type runFlags struct {
	input        inputFlags
	render       renderFlags
	sourceID     int64
	sourceLonLat string
	strategy     string
	storeURL     string
	cacheKind    string
	cacheDir     string
	progress     bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute and draw the flow map of one source vertex",
		Example: `  flowmap run --graph berlin.osrm --source-id 123456 -o berlin.svg
  flowmap run --graph paris.bin --input-format snapshot --source-lonlat 2.3522,48.8566 --strategy undirected -o paris.png
  flowmap run --config flowmap.toml --store postgres://localhost/flowmap --cache file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, g, &f)
		},
	}

	f.input.register(cmd, "graph", "osrm")
	f.render.register(cmd)
	cmd.Flags().Int64Var(&f.sourceID, "source-id", 0, "external id of the source vertex")
	cmd.Flags().StringVar(&f.sourceLonLat, "source-lonlat", "", "pick the vertex nearest to LON,LAT as source")
	cmd.Flags().StringVar(&f.strategy, "strategy", "directed", "shortest-path strategy: directed or undirected")
	cmd.Flags().StringVar(&f.storeURL, "store", "", "persist usage rows to a postgres:// or mongodb:// URL (none disables)")
	cmd.Flags().StringVar(&f.cacheKind, "cache", "", "result cache: none, file or redis")
	cmd.Flags().StringVar(&f.cacheDir, "cache-dir", "", "directory of the file cache")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "show loading progress")

	return cmd
}

func runRun(cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	cfg, err := g.load()
	if err != nil {
		return err
	}
	if err := f.input.apply(cmd, "graph", &cfg.Input); err != nil {
		return err
	}
	f.render.apply(cmd, &cfg.Render)

	fs := cmd.Flags()
	if fs.Changed("source-id") {
		id := f.sourceID
		cfg.Input.SourceID = &id
	}
	if fs.Changed("source-lonlat") {
		ll, err := parseFloats(f.sourceLonLat, 2)
		if err != nil {
			return err
		}
		cfg.Input.SourceLonLat = ll
	}
	if fs.Changed("strategy") {
		cfg.Input.Strategy = f.strategy
	}
	if fs.Changed("store") {
		cfg.Store.URL = f.storeURL
	}
	if fs.Changed("cache") {
		cfg.Cache.Kind = f.cacheKind
	}
	if fs.Changed("cache-dir") {
		cfg.Cache.Dir = f.cacheDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := source.FromConfig(cfg.Input, cfg.Neo4j)
	if err != nil {
		return err
	}

	c := openCache(ctx, cfg)
	defer c.Close()

	st, err := openStore(ctx, cfg.Store.URL)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	out, format, err := openOutput(cfg.Render)
	if err != nil {
		return err
	}
	canvas, err := sink.New(format, out)
	if err != nil {
		return finishOutput(out, err)
	}

	deps := pipeline.Deps{Source: src, Cache: c, Store: st, Canvas: canvas}
	var view *progressView
	if f.progress {
		view = startProgress(src.Name())
		deps.Progress = view.report
	}

	res, err := pipeline.Run(ctx, cfg, deps)
	if view != nil {
		view.stop()
	}
	if err = finishOutput(out, err); err != nil {
		return err
	}

	logger.Debug("Run finished", "run_id", res.RunID)
	printSuccess("Drew %d edges from vertex %d", len(res.Usages), res.Source)
	printStats(res.Nodes, len(res.Usages), res.CacheHit)
	printKeyValue("paths", fmt.Sprint(res.Reachable))
	printKeyValue("busiest", fmt.Sprint(flow.MaxCount(res.Usages)))
	printKeyValue("total use", fmt.Sprint(flow.Total(res.Usages)))
	if st != nil {
		printKeyValue("run id", res.RunID.String())
		printNextStep("Redraw later with", fmt.Sprintf("flowmap draw --store URL --run-id %s -o other.png", res.RunID))
	}
	printFile(cfg.Render.Out)
	return nil
}
