package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/progress-tracker/internal/summary"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the recorded progress without counting or writing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext()
		defer stop()

		stats, annotations, err := a.tracker.Report(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), summary.Terminal(stats, annotations))
		return nil
	},
}
