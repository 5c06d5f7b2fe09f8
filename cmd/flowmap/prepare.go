package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/graph"
	"github.com/azybler/flowmap/pkg/logging"
	"github.com/azybler/flowmap/pkg/source"
)

type prepareFlags struct {
	input  inputFlags
	output string
}

func newPrepareCmd(g *globalFlags) *cobra.Command {
	var f prepareFlags

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Convert a graph input into a snapshot for fast repeated runs",
		Example: `  flowmap prepare --input paris.osm.pbf --output paris.bin --largest-component
  flowmap prepare --input region.osm.pbf --bbox 2.22,48.81,2.47,48.90 --output paris.bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, g, &f)
		},
	}

	f.input.register(cmd, "input", "osm")
	cmd.Flags().StringVar(&f.output, "output", "graph.bin", "snapshot file to write")

	return cmd
}

func runPrepare(cmd *cobra.Command, g *globalFlags, f *prepareFlags) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	cfg, err := g.load()
	if err != nil {
		return err
	}
	// prepare has its own default input format.
	if !cmd.Flags().Changed("input-format") {
		cfg.Input.Format = f.input.format
	}
	if err := f.input.apply(cmd, "input", &cfg.Input); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := source.FromConfig(cfg.Input, cfg.Neo4j)
	if err != nil {
		return err
	}

	timer := logging.Start(logger)
	network, _, err := source.Load(ctx, src, source.Options{
		Filter:           graph.Filter{MinCapacity: cfg.Input.MinCapacity},
		LargestComponent: cfg.Input.LargestComponent,
		Progress: func(stage string, done, total int) {
			logger.Debug("Loading", "stage", stage, "done", done, "total", total)
		},
	})
	if err != nil {
		return err
	}

	if err := graph.WriteBinary(f.output, network); err != nil {
		return ferrors.Wrap(ferrors.CodeIO, err, "write %s", f.output)
	}
	timer.Done("Snapshot written", "path", f.output)

	info, err := os.Stat(f.output)
	if err != nil {
		return ferrors.Wrap(ferrors.CodeIO, err, "stat %s", f.output)
	}
	printSuccess("Prepared %s", src.Name())
	printStats(int(network.NumNodes), int(network.NumEdges), false)
	printKeyValue("size", fmt.Sprintf("%.1f MB", float64(info.Size())/(1024*1024)))
	printFile(f.output)
	printNextStep("Draw a flow map with", fmt.Sprintf("flowmap run --graph %s --input-format snapshot", f.output))
	return nil
}
