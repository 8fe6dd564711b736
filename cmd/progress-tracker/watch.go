package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/progress-tracker/internal/summary"
	"github.com/marcin-skalski/progress-tracker/internal/tracker"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Record progress after every commit until interrupted",
	Long: `Watch runs the tracker once, then again each time HEAD moves.
Failed runs are logged and the watch keeps going.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	out := cmd.OutOrStdout()
	return a.tracker.Watch(ctx, func(res *tracker.Result) {
		fmt.Fprint(out, summary.Terminal(res.Stats, res.Annotations))
	})
}
