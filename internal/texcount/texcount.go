package texcount

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultBinary is the counting tool looked up in PATH.
const DefaultBinary = "texcount"

// CountingError means no word count could be obtained. It aborts the run.
type CountingError struct {
	Msg    string
	Output string
	Err    error
}

func (e *CountingError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Output)
	}
	return msg
}

func (e *CountingError) Unwrap() error { return e.Err }

// Checked in order; the first one found wins.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Total words:\s*(\d+)`),
	regexp.MustCompile(`Words in text:\s*(\d+)`),
	regexp.MustCompile(`Total:\s*(\d+)`),
}

// Parse extracts the total word count from the tool's output.
func Parse(output string) (int, error) {
	for _, re := range totalPatterns {
		m := re.FindStringSubmatch(output)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, &CountingError{Msg: "parse word count", Err: err}
		}
		return n, nil
	}
	return 0, &CountingError{Msg: "no total word count in texcount output", Output: excerpt(output, 200)}
}

// excerpt cuts s to at most n bytes without splitting a rune.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var preferredNames = []string{"main.tex", "manuscript.tex", "paper.tex", "article.tex"}

// FindMainFile picks the main document among the .tex files directly in root.
func FindMainFile(root string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.tex"))
	if err != nil {
		return "", &CountingError{Msg: "list .tex files", Err: err}
	}
	if len(matches) == 0 {
		return "", &CountingError{Msg: fmt.Sprintf("no .tex files found in %s", root)}
	}
	sort.Strings(matches)

	for _, name := range preferredNames {
		for _, m := range matches {
			if strings.EqualFold(filepath.Base(m), name) {
				return m, nil
			}
		}
	}

	for _, m := range matches {
		if hasDocumentClass(m) {
			return m, nil
		}
	}

	return matches[0], nil
}

func hasDocumentClass(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 1000)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return bytes.Contains(head[:n], []byte(`\documentclass`))
}

// ResolveMainFile returns the configured document, or detects it when configured is "auto" or empty.
func ResolveMainFile(root, configured string) (string, error) {
	if configured == "" || configured == "auto" {
		return FindMainFile(root)
	}
	path := configured
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", &CountingError{Msg: fmt.Sprintf("main document %s", configured), Err: err}
	}
	return path, nil
}

type Counter struct {
	bin    string
	dir    string
	logger *slog.Logger
}

// NewCounter runs bin (DefaultBinary when empty) from dir.
func NewCounter(bin, dir string, logger *slog.Logger) *Counter {
	if bin == "" {
		bin = DefaultBinary
	}
	return &Counter{bin: bin, dir: dir, logger: logger}
}

// Count runs the tool on path and returns the total word count.
func (c *Counter) Count(ctx context.Context, path, options string) (int, error) {
	args := append(strings.Fields(options), path)
	c.logger.Debug("exec", "cmd", c.bin+" "+strings.Join(args, " "), "dir", c.dir)

	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Dir = c.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 0, &CountingError{Msg: fmt.Sprintf("run %s", c.bin), Err: err}
		}
		// texcount exits non-zero on some warnings but still prints totals.
		c.logger.Warn("texcount returned non-zero exit code", "code", exitErr.ExitCode(), "stderr", strings.TrimSpace(stderr.String()))
	}

	n, err := Parse(string(out))
	if err != nil {
		return 0, err
	}
	c.logger.Debug("parsed word count", "file", path, "words", n)
	return n, nil
}
