package readme

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/marcin-skalski/progress-tracker/internal/fsutil"
)

// ErrMarkerInSection is returned for generated content that contains one of the
// markers. Writing it would move the section boundary on the next run.
var ErrMarkerInSection = errors.New("section contains a README marker")

// MarkerNotFoundError means the generated section has nowhere to go.
// The file is left untouched.
type MarkerNotFoundError struct {
	Path   string
	Marker string
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("%s: marker %q not found", e.Path, e.Marker)
}

// span locates the text strictly between start and the first end after it.
func span(content, start, end string) (from, to int, err error) {
	i := strings.Index(content, start)
	if i < 0 {
		return 0, 0, &MarkerNotFoundError{Marker: start}
	}
	from = i + len(start)
	j := strings.Index(content[from:], end)
	if j < 0 {
		return 0, 0, &MarkerNotFoundError{Marker: end}
	}
	return from, from + j, nil
}

func withPath(err error, path string) error {
	var markerErr *MarkerNotFoundError
	if errors.As(err, &markerErr) {
		markerErr.Path = path
	}
	return err
}

func read(path, start string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &MarkerNotFoundError{Path: path, Marker: start}
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Check reports whether both markers are present, in order, without writing.
func Check(path, start, end string) error {
	content, err := read(path, start)
	if err != nil {
		return err
	}
	if _, _, err := span(content, start, end); err != nil {
		return withPath(err, path)
	}
	return nil
}

// Replace returns content with the text between the markers swapped for section.
func Replace(content, start, end, section string) (string, error) {
	for _, m := range []string{start, end} {
		if strings.Contains(section, m) {
			return content, fmt.Errorf("%w: %q", ErrMarkerInSection, m)
		}
	}
	from, to, err := span(content, start, end)
	if err != nil {
		return content, err
	}
	return content[:from] + "\n" + section + "\n" + content[to:], nil
}

// Edit is a README rewrite computed up front and applied later.
type Edit struct {
	Path    string
	content []byte
	perm    os.FileMode
	changed bool
}

// Prepare computes the rewrite of the section in the file at path without writing it.
func Prepare(path, start, end, section string) (*Edit, error) {
	content, err := read(path, start)
	if err != nil {
		return nil, err
	}
	updated, err := Replace(content, start, end, section)
	if err != nil {
		return nil, withPath(err, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &Edit{
		Path:    path,
		content: []byte(updated),
		perm:    info.Mode().Perm(),
		changed: updated != content,
	}, nil
}

// Changed reports whether applying the edit would modify the file.
func (e *Edit) Changed() bool {
	return e.changed
}

// Apply writes the edit atomically. An unchanged file is not rewritten.
func (e *Edit) Apply() error {
	if !e.changed {
		return nil
	}
	if err := fsutil.WriteFileAtomic(e.Path, e.content, e.perm); err != nil {
		return fmt.Errorf("write %s: %w", e.Path, err)
	}
	return nil
}

// Update rewrites the section between the markers in the file at path.
func Update(path, start, end, section string) error {
	e, err := Prepare(path, start, end, section)
	if err != nil {
		return err
	}
	return e.Apply()
}

// Ensure appends an empty marker pair to the file at path, creating it if needed.
// It reports whether anything was written. A file holding only one of the markers
// is left alone and reported with a *MarkerNotFoundError.
func Ensure(path, start, end string) (bool, error) {
	var content string
	perm := os.FileMode(0o644)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		content = string(data)
		info, err := os.Stat(path)
		if err != nil {
			return false, fmt.Errorf("stat %s: %w", path, err)
		}
		perm = info.Mode().Perm()
	case errors.Is(err, os.ErrNotExist):
	default:
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	if _, _, err := span(content, start, end); err == nil {
		return false, nil
	} else if strings.Contains(content, start) || strings.Contains(content, end) {
		return false, withPath(err, path)
	}

	if content != "" {
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += "\n"
	}
	content += start + "\n" + end + "\n"

	if err := fsutil.WriteFileAtomic(path, []byte(content), perm); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
