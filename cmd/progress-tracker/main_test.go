package main

import (
	"bytes"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcin-skalski/progress-tracker/internal/config"
	"github.com/marcin-skalski/progress-tracker/internal/readme"
	"github.com/marcin-skalski/progress-tracker/internal/testutil"
)

func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		flagVerbose, flagConfig, flagRepo, flagLogFile, flagQuiet = false, "", "", "", false
		flagForce = false
		flagDemoOut, flagDemoSeed = "docs", 1
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewAppFallsBackOnBadConfig(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("{broken"), 0o644))

	flagRepo = dir
	flagLogFile = filepath.Join(dir, "logs", "tracker.log")

	a, err := newApp()
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.tracker)
	require.FileExists(t, flagLogFile)
}

func TestStatsWithoutRepositoryFails(t *testing.T) {
	resetFlags(t)
	rootCmd.SetArgs([]string{"stats", "--repo", t.TempDir()})
	rootCmd.SetOut(io.Discard)
	require.Error(t, rootCmd.Execute())
}

func TestInitPreparesRepository(t *testing.T) {
	repo := testutil.NewRepo(t)
	repo.WriteFile("README.md", "# Thesis\n")

	out, err := execute(t, "init", "--repo", repo.Dir)
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+config.FileName)
	require.Contains(t, out, "added progress markers to README.md")

	cfg, err := config.Load(filepath.Join(repo.Dir, config.FileName))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)

	require.Equal(t, "[]\n", readFile(t, filepath.Join(repo.Dir, ".progress-data", "progress.json")))

	readmePath := filepath.Join(repo.Dir, "README.md")
	require.NoError(t, readme.Check(readmePath, config.DefaultStartMarker, config.DefaultEndMarker))
	require.Equal(t, "# Thesis\n\n"+config.DefaultStartMarker+"\n"+config.DefaultEndMarker+"\n", readFile(t, readmePath))
}

func TestInitKeepsExistingFiles(t *testing.T) {
	repo := testutil.NewRepo(t)
	cfgPath := repo.WriteFile(config.FileName, `{"plot_style": {"figure_size": [4, 3]}}`)
	dataPath := repo.WriteFile(filepath.Join(".progress-data", "progress.json"), `[{"timestamp":"2026-06-01T09:00:00Z","word_count":10,"commit_sha":"a","message":"m"}]`)
	readmePath := repo.WriteFile("README.md", "# Thesis\n"+config.DefaultStartMarker+"\nold\n"+config.DefaultEndMarker+"\n")

	before := map[string]string{
		cfgPath:    readFile(t, cfgPath),
		dataPath:   readFile(t, dataPath),
		readmePath: readFile(t, readmePath),
	}

	out, err := execute(t, "init", "--repo", repo.Dir)
	require.NoError(t, err)
	require.Contains(t, out, "kept "+config.FileName)
	require.Contains(t, out, "kept progress markers in README.md")

	for path, content := range before {
		require.Equal(t, content, readFile(t, path), path)
	}
}

func TestInitForceRewritesConfig(t *testing.T) {
	repo := testutil.NewRepo(t)
	cfgPath := repo.WriteFile(config.FileName, `{"plot_style": {"figure_size": [4, 3]}}`)

	_, err := execute(t, "init", "--repo", repo.Dir, "--force")
	require.NoError(t, err)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, []float64{10, 6}, cfg.PlotStyle.FigureSize)
}

func TestInitOutsideRepositoryFails(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "init", "--repo", dir)
	require.Error(t, err)
	require.NoFileExists(t, filepath.Join(dir, config.FileName))
	require.NoFileExists(t, filepath.Join(dir, "README.md"))
}

func TestDemoWritesExample(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")

	out, err := execute(t, "demo", "--out", dir)
	require.NoError(t, err)
	require.Contains(t, out, "example_plot.png")

	f, err := os.Open(filepath.Join(dir, "example_plot.png"))
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	require.NoError(t, err)

	md := readFile(t, filepath.Join(dir, "example.md"))
	require.Contains(t, md, "![Progress Tracking](example_plot.png)")
	require.Contains(t, md, "- **Commits tracked:** 20\n")
	require.Contains(t, md, "Submitted for review")
}

func TestSampleHistory(t *testing.T) {
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	records, commits := sampleHistory(now, rand.New(rand.NewPCG(7, 7)))
	require.Len(t, records, 20)
	require.Len(t, commits, 20)
	for i := 1; i < len(records); i++ {
		require.True(t, records[i-1].Timestamp.Before(records[i].Timestamp))
		if i >= 5 {
			require.Greater(t, records[i].WordCount, records[i-1].WordCount)
		}
	}
	require.False(t, records[len(records)-1].Timestamp.After(now))

	again, _ := sampleHistory(now, rand.New(rand.NewPCG(7, 7)))
	require.Equal(t, records, again)
}
