// Command flowmap computes a shortest-path flow map from one source vertex
// of a road graph and draws it.
//
// Subcommands:
//
//	flowmap run      load a graph, aggregate edge usage, persist and draw
//	flowmap prepare  convert OSM (or any other input) into a graph snapshot
//	flowmap draw     redraw a persisted run
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	ferrors "github.com/azybler/flowmap/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		printError("%s", ferrors.UserMessage(err))
		if code := ferrors.GetCode(err); code != "" {
			printDetail("code: %s", code)
		}
		os.Exit(1)
	}
}
