package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/azybler/flowmap/pkg/config"
	"github.com/azybler/flowmap/pkg/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	verbose    bool
	configPath string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "flowmap",
		Short:         "Draw how many shortest paths use each road",
		Long:          `flowmap builds the shortest-path forest from one source vertex of a road graph, counts how many paths traverse each edge and draws the edges with stroke width and darkness growing with their usage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if g.verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(os.Stderr, level)))
		},
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "TOML config file")

	root.AddCommand(newRunCmd(&g))
	root.AddCommand(newPrepareCmd(&g))
	root.AddCommand(newDrawCmd(&g))

	return root
}

func (g *globalFlags) load() (config.Config, error) {
	return config.Load(g.configPath)
}
