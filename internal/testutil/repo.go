// Package testutil provides throwaway manuscript repositories for tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Repo is a git repository in a temporary directory.
type Repo struct {
	T   *testing.T
	Dir string
}

// NewRepo initializes an empty repository. Tests are skipped when git is not installed.
func NewRepo(t *testing.T) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	r := &Repo{T: t, Dir: t.TempDir()}
	r.Git(time.Time{}, "init", "--quiet")
	r.Git(time.Time{}, "config", "user.name", "Test Author")
	r.Git(time.Time{}, "config", "user.email", "author@example.com")
	r.Git(time.Time{}, "config", "commit.gpgsign", "false")
	return r
}

// WriteFile writes content to a path relative to the repository root.
func (r *Repo) WriteFile(name, content string) string {
	r.T.Helper()
	path := filepath.Join(r.Dir, name)
	require.NoError(r.T, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.T, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Commit stages everything and commits with both author and committer date set to at.
func (r *Repo) Commit(message string, at time.Time) string {
	r.T.Helper()
	r.Git(at, "add", "-A")
	r.Git(at, "commit", "--quiet", "--allow-empty", "-m", message)
	return r.Git(at, "rev-parse", "HEAD")
}

// Git runs a git command in the repository and returns its trimmed stdout.
func (r *Repo) Git(at time.Time, args ...string) string {
	r.T.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_NOSYSTEM=1")
	if !at.IsZero() {
		stamp := at.Format(time.RFC3339)
		cmd.Env = append(cmd.Env, "GIT_AUTHOR_DATE="+stamp, "GIT_COMMITTER_DATE="+stamp)
	}
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		require.NoError(r.T, err, "git %v: %s", args, stderr)
	}
	return trimNewline(string(out))
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
