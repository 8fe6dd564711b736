package git

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"

	logFormat = "%H" + fieldSep + "%cI" + fieldSep + "%an" + fieldSep + "%s" + recordSep
)

type Commit struct {
	SHA     string    `json:"sha"`
	Date    time.Time `json:"date"`
	Author  string    `json:"author"`
	Subject string    `json:"subject"`
}

// Short returns the abbreviated commit hash.
func (c Commit) Short() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

type Client struct {
	dir    string
	logger *slog.Logger
}

func NewClient(dir string, logger *slog.Logger) *Client {
	return &Client{dir: dir, logger: logger}
}

// Dir returns the working tree the client operates on.
func (c *Client) Dir() string {
	return c.dir
}

// Head returns the commit checked out in the working tree.
func (c *Client) Head(ctx context.Context) (Commit, error) {
	out, err := c.output(ctx, "log", "-1", "--pretty=format:"+logFormat)
	if err != nil {
		return Commit{}, fmt.Errorf("read HEAD: %w", err)
	}
	commits, err := parseLog(out)
	if err != nil {
		return Commit{}, err
	}
	if len(commits) == 0 {
		return Commit{}, fmt.Errorf("read HEAD: repository has no commits")
	}
	return commits[0], nil
}

// Log returns commits reachable from HEAD, newest first. An empty since means the
// full history; otherwise only commits after since are listed.
func (c *Client) Log(ctx context.Context, since string) ([]Commit, error) {
	args := []string{"log", "--pretty=format:" + logFormat}
	if since != "" {
		args = append(args, since+"..HEAD")
	}
	out, err := c.output(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	return parseLog(out)
}

// GitDir returns the absolute path of the repository's git directory. It fails
// outside a repository.
func (c *Client) GitDir(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", fmt.Errorf("locate git dir: %w", err)
	}
	gitDir := strings.TrimSpace(out)
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(c.dir, gitDir)
	}
	return gitDir, nil
}

// HeadLogPath is the reflog file git appends to on every commit or checkout.
func (c *Client) HeadLogPath(ctx context.Context) (string, error) {
	gitDir, err := c.GitDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, "logs", "HEAD"), nil
}

func parseLog(out string) ([]Commit, error) {
	var commits []Commit
	for _, rec := range strings.Split(out, recordSep) {
		rec = strings.Trim(rec, "\n")
		if rec == "" {
			continue
		}
		fields := strings.Split(rec, fieldSep)
		if len(fields) != 4 {
			return nil, fmt.Errorf("parse git log record %q: expected 4 fields, got %d", rec, len(fields))
		}
		date, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return nil, fmt.Errorf("parse commit date %q: %w", fields[1], err)
		}
		commits = append(commits, Commit{
			SHA:     fields[0],
			Date:    date.UTC(),
			Author:  fields[2],
			Subject: fields[3],
		})
	}
	return commits, nil
}

func (c *Client) output(ctx context.Context, args ...string) (string, error) {
	c.logger.Debug("exec", "cmd", "git "+strings.Join(args, " "), "dir", c.dir)
	cmd := exec.CommandContext(ctx, "git", args...)
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}
