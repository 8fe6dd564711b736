package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/progress-tracker/internal/config"
	"github.com/marcin-skalski/progress-tracker/internal/git"
	"github.com/marcin-skalski/progress-tracker/internal/logging"
	"github.com/marcin-skalski/progress-tracker/internal/summary"
	"github.com/marcin-skalski/progress-tracker/internal/texcount"
	"github.com/marcin-skalski/progress-tracker/internal/tracker"
)

var (
	flagVerbose bool
	flagConfig  string
	flagRepo    string
	flagLogFile string
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "progress-tracker",
	Short: "Track the word count of a LaTeX manuscript across commits",
	Long: `progress-tracker counts the words of the manuscript at HEAD with texcount,
appends the result to a JSON log, renders a progress chart annotated with
categorized commit messages and refreshes the progress section of the README.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&flagConfig, "config", "", "path to config file (default <repo>/"+config.FileName+")")
	pf.StringVar(&flagRepo, "repo", "", "manuscript repository (default current directory)")
	pf.StringVar(&flagLogFile, "log-file", "", "also write logs to this file")

	rootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "do not print the summary")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(demoCmd)
}

type app struct {
	tracker *tracker.Tracker
	logger  *logging.Logger
}

func (a *app) Close() {
	if err := a.logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
	}
}

func repoRoot() (string, error) {
	root := flagRepo
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve repository: %w", err)
	}
	return root, nil
}

func configPath(root string) string {
	if flagConfig != "" {
		return flagConfig
	}
	return filepath.Join(root, config.FileName)
}

// loadConfig returns the config at path. An unusable file yields the defaults and
// the *config.Error to report once logging is up.
func loadConfig(path string) (config.Config, *config.Error, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil, nil
	}
	var badConfig *config.Error
	if !errors.As(err, &badConfig) {
		return cfg, nil, err
	}
	return cfg, badConfig, nil
}

func setupLogger(cfg config.Config, badConfig *config.Error) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Log.Level)
	if flagVerbose {
		level = slog.LevelDebug
	}
	logFile := cfg.Log.File
	if flagLogFile != "" {
		logFile = flagLogFile
	}
	logger, err := logging.Setup(os.Stderr, logFile, level)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	if badConfig != nil {
		logger.Warn("using default config", "path", badConfig.Path, "err", badConfig.Err)
	}
	return logger, nil
}

// newApp resolves the repository, loads config and wires the tracker.
func newApp() (*app, error) {
	root, err := repoRoot()
	if err != nil {
		return nil, err
	}
	path := configPath(root)
	cfg, badConfig, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	logger, err := setupLogger(cfg, badConfig)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "path", path, "repo", root)

	g := git.NewClient(root, logger.Logger)
	counter := texcount.NewCounter("", root, logger.Logger)
	return &app{
		tracker: tracker.New(root, cfg, g, counter, logger.Logger),
		logger:  logger,
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runOnce(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signalContext()
	defer stop()

	res, err := a.tracker.Run(ctx)
	if err != nil {
		return err
	}
	if !flagQuiet {
		fmt.Fprint(cmd.OutOrStdout(), summary.Terminal(res.Stats, res.Annotations))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
