package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/marcin-skalski/progress-tracker/internal/fsutil"
	"github.com/marcin-skalski/progress-tracker/internal/git"
)

// CommitCache keeps the categorized commits already scanned, so a run only
// reads the history added since the last recorded commit.
type CommitCache struct {
	path   string
	logger *slog.Logger
}

func NewCommitCache(path string, logger *slog.Logger) *CommitCache {
	return &CommitCache{path: path, logger: logger}
}

func (c *CommitCache) Path() string {
	return c.path
}

// Load returns the cached commits. A missing cache is nil with no error, so callers
// can tell it apart from an empty one. A corrupt cache is nil plus an *Error.
func (c *CommitCache) Load() ([]git.Commit, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read commit cache: %w", err)
	}

	commits := []git.Commit{}
	if err := json.Unmarshal(data, &commits); err != nil {
		return nil, &Error{Path: c.path, Err: err}
	}
	return commits, nil
}

func (c *CommitCache) Save(commits []git.Commit) error {
	if commits == nil {
		commits = []git.Commit{}
	}
	data, err := json.MarshalIndent(commits, "", "  ")
	if err != nil {
		return fmt.Errorf("encode commit cache: %w", err)
	}
	data = append(data, '\n')

	if err := fsutil.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write commit cache: %w", err)
	}
	c.logger.Debug("commit cache written", "path", c.path, "commits", len(commits))
	return nil
}
