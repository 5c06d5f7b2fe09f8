package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	ferrors "github.com/azybler/flowmap/pkg/errors"
	"github.com/azybler/flowmap/pkg/pipeline"
	"github.com/azybler/flowmap/pkg/render/sink"
)

type drawFlags struct {
	render   renderFlags
	storeURL string
	runID    string
}

func newDrawCmd(g *globalFlags) *cobra.Command {
	var f drawFlags

	cmd := &cobra.Command{
		Use:     "draw",
		Short:   "Redraw a persisted run",
		Example: `  flowmap draw --store postgres://localhost/flowmap --run-id 0b6f6f0e-3c1e-4c55-9a7e-2f8d1f0c2a11 -o run.pdf --keep 2000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraw(cmd, g, &f)
		},
	}

	f.render.register(cmd)
	cmd.Flags().StringVar(&f.storeURL, "store", "", "postgres:// or mongodb:// URL holding the run")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "run to draw")
	_ = cmd.MarkFlagRequired("run-id")

	return cmd
}

func runDraw(cmd *cobra.Command, g *globalFlags, f *drawFlags) error {
	ctx := cmd.Context()

	cfg, err := g.load()
	if err != nil {
		return err
	}
	f.render.apply(cmd, &cfg.Render)
	if cmd.Flags().Changed("store") {
		cfg.Store.URL = f.storeURL
	}

	runID, err := uuid.Parse(f.runID)
	if err != nil {
		return ferrors.Wrap(ferrors.CodeInvalidInput, err, "--run-id")
	}
	st, err := openStore(ctx, cfg.Store.URL)
	if err != nil {
		return err
	}
	if st == nil {
		return ferrors.New(ferrors.CodeInvalidInput, "no store given (--store or FLOWMAP_STORE_URL)")
	}
	defer st.Close()

	out, format, err := openOutput(cfg.Render)
	if err != nil {
		return err
	}
	canvas, err := sink.New(format, out)
	if err != nil {
		return finishOutput(out, err)
	}

	err = pipeline.Redraw(ctx, st, runID, canvas, pipeline.RenderOptions(cfg.Render))
	if err := finishOutput(out, err); err != nil {
		return err
	}

	printSuccess("Redrew run %s", runID)
	printFile(cfg.Render.Out)
	return nil
}
