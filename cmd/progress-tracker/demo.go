package main

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/progress-tracker/internal/annotate"
	"github.com/marcin-skalski/progress-tracker/internal/chart"
	"github.com/marcin-skalski/progress-tracker/internal/config"
	"github.com/marcin-skalski/progress-tracker/internal/fsutil"
	"github.com/marcin-skalski/progress-tracker/internal/git"
	"github.com/marcin-skalski/progress-tracker/internal/store"
	"github.com/marcin-skalski/progress-tracker/internal/summary"
)

var (
	flagDemoOut  string
	flagDemoSeed uint64
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Render an example chart and README section from sample data",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&flagDemoOut, "out", "docs", "directory to write example_plot.png and example.md to")
	demoCmd.Flags().Uint64Var(&flagDemoSeed, "seed", 1, "seed for the sample word counts")
}

var demoMessages = []string{
	"Notes: Added introduction and background",
	"Milestone: Completed literature review",
	"Progress: Wrote methodology section",
	"Notes: Added experimental setup figures",
	"Revisions: Addressed reviewer comments on theory",
	"Fix: Corrected equations in section 3",
	"Reference: Added recent citations",
	"Progress: Finished results analysis",
	"Milestone: Completed first draft",
	"Notes: Added discussion section",
	"Revisions: Updated abstract and conclusions",
	"Fix: Corrected table formatting",
	"Progress: Added appendix materials",
	"Notes: Improved figure captions",
	"Milestone: Submitted for review",
}

// sampleHistory fakes twenty commits over the month before now, one every 36 hours,
// with a drafting pace that speeds up and then tapers off.
func sampleHistory(now time.Time, rng *rand.Rand) ([]store.Record, []git.Commit) {
	start := now.UTC().Add(-30 * 24 * time.Hour).Truncate(time.Minute)
	var (
		records []store.Record
		commits []git.Commit
	)
	words := 0
	for i := 0; i < 20; i++ {
		at := start.Add(time.Duration(i) * 36 * time.Hour)
		switch {
		case i < 5:
			words = 1000 + i*200 + rng.IntN(150) - 50
		case i < 10:
			words += 100 + rng.IntN(200)
		case i < 15:
			words += 150 + rng.IntN(250)
		default:
			words += 50 + rng.IntN(150)
		}
		sha := fmt.Sprintf("%040x", i+0xabc0000)
		msg := demoMessages[i%len(demoMessages)]

		records = append(records, store.Record{Timestamp: at, WordCount: words, CommitSHA: sha, Message: msg})
		commits = append(commits, git.Commit{SHA: sha, Date: at, Author: "Example Author", Subject: msg})
	}
	return records, commits
}

func runDemo(cmd *cobra.Command, args []string) error {
	now := time.Now()
	records, commits := sampleHistory(now, rand.New(rand.NewPCG(flagDemoSeed, flagDemoSeed)))

	cfg := config.Default()
	annotations := annotate.Extract(commits, cfg.PlotStyle.Categories)

	c, err := chart.Build(records, annotations, cfg.PlotStyle)
	if err != nil {
		return fmt.Errorf("build chart: %w", err)
	}
	var img bytes.Buffer
	if err := chart.Render(&img, c); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	plotPath := filepath.Join(flagDemoOut, "example_plot.png")
	mdPath := filepath.Join(flagDemoOut, "example.md")
	section := summary.Markdown(summary.Compute(records), annotations, "example_plot.png", now)

	if err := fsutil.WriteFileAtomic(plotPath, img.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	if err := fsutil.WriteFileAtomic(mdPath, []byte(section+"\n"), 0o644); err != nil {
		return fmt.Errorf("write example section: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "wrote %s\n", plotPath)
	fmt.Fprintf(out, "wrote %s\n", mdPath)
	return nil
}
