package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/progress-tracker/internal/config"
	"github.com/marcin-skalski/progress-tracker/internal/git"
	"github.com/marcin-skalski/progress-tracker/internal/readme"
	"github.com/marcin-skalski/progress-tracker/internal/store"
)

var flagForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare a manuscript repository for tracking",
	Long: `Init writes the default config, an empty progress log and the README markers
the progress section goes between. Existing files are kept; --force rewrites
the config with the defaults. The progress log is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing config")
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	cfgPath := configPath(root)
	cfg, badConfig, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	logger, err := setupLogger(cfg, badConfig)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signalContext()
	defer stop()

	if _, err := git.NewClient(root, logger.Logger).GitDir(ctx); err != nil {
		return fmt.Errorf("%s is not a git repository: %w", root, err)
	}

	out := cmd.OutOrStdout()
	show := func(path string) string {
		if rel, err := filepath.Rel(root, path); err == nil {
			return rel
		}
		return path
	}

	_, statErr := os.Stat(cfgPath)
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", statErr)
	}
	if statErr == nil && !flagForce {
		fmt.Fprintf(out, "kept %s\n", show(cfgPath))
	} else {
		cfg = config.Default()
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", show(cfgPath))
	}

	dataFile := cfg.Output.DataFile
	if !filepath.IsAbs(dataFile) {
		dataFile = filepath.Join(root, dataFile)
	}
	if _, err := os.Stat(dataFile); errors.Is(err, os.ErrNotExist) {
		if err := store.New(dataFile, logger.Logger).Save(nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", show(dataFile))
	} else if err != nil {
		return fmt.Errorf("stat progress log: %w", err)
	} else {
		fmt.Fprintf(out, "kept %s\n", show(dataFile))
	}

	readmePath := cfg.Readme.Path
	if !filepath.IsAbs(readmePath) {
		readmePath = filepath.Join(root, readmePath)
	}
	added, err := readme.Ensure(readmePath, cfg.Readme.StartMarker, cfg.Readme.EndMarker)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(out, "added progress markers to %s\n", show(readmePath))
	} else {
		fmt.Fprintf(out, "kept progress markers in %s\n", show(readmePath))
	}

	logger.Info("repository ready", "repo", root)
	return nil
}
