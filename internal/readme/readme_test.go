package readme

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	start = "<!--START-->"
	end   = "<!--END-->"
)

func writeReadme(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUpdateReplacesOnlyEnclosedText(t *testing.T) {
	before := "# Thesis\r\n\nIntro text.\n" + start
	after := end + "\n\n## Building\n\n  make pdf\n\x00trailing"
	path := writeReadme(t, before+"\nold stats\nold image\n"+after)

	require.NoError(t, Update(path, start, end, "new section"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before+"\nnew section\n"+after, string(data))
}

func TestUpdateIsIdempotent(t *testing.T) {
	path := writeReadme(t, "a\n"+start+end+"\nb")

	require.NoError(t, Update(path, start, end, "x"))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, Update(path, start, end, "x"))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, "a\n"+start+"\nx\n"+end+"\nb", string(second))
}

func TestUpdateUsesFirstEndAfterStart(t *testing.T) {
	content := end + " stray\n" + start + "old" + end + " keep " + end
	path := writeReadme(t, content)

	require.NoError(t, Update(path, start, end, "new"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, end+" stray\n"+start+"\nnew\n"+end+" keep "+end, string(data))
}

func TestUpdateMissingMarkers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		missing string
	}{
		{"no markers", "# Title\n", start},
		{"no end", "# Title\n" + start + "\n", end},
		{"no start", "# Title\n" + end + "\n", start},
		{"end before start", end + "\n" + start + "\n", end},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeReadme(t, tt.content)

			err := Update(path, start, end, "new")
			var markerErr *MarkerNotFoundError
			require.True(t, errors.As(err, &markerErr))
			require.Equal(t, tt.missing, markerErr.Marker)

			require.ErrorAs(t, Check(path, start, end), &markerErr)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, tt.content, string(data))
		})
	}
}

func TestUpdateMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	var markerErr *MarkerNotFoundError
	require.ErrorAs(t, Update(path, start, end, "x"), &markerErr)
	require.NoFileExists(t, path)
}

func TestCheck(t *testing.T) {
	path := writeReadme(t, start+"\n"+end)
	require.NoError(t, Check(path, start, end))
}

func TestUpdatePreservesMode(t *testing.T) {
	path := writeReadme(t, start+end)
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, Update(path, start, end, "x"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReplaceRejectsMarkerInSection(t *testing.T) {
	content := "a\n" + start + "\nold\n" + end + "\nb"

	for _, section := range []string{"notes " + end + " more", start + " again"} {
		got, err := Replace(content, start, end, section)
		require.ErrorIs(t, err, ErrMarkerInSection)
		require.Equal(t, content, got)
	}
}

func TestUpdateRejectsMarkerInSectionWithoutWriting(t *testing.T) {
	content := start + "\nold\n" + end + "\n"
	path := writeReadme(t, content)

	require.ErrorIs(t, Update(path, start, end, "moved "+end+" below intro"), ErrMarkerInSection)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, string(data))
}

func TestReplaceReportsMissingMarker(t *testing.T) {
	_, err := Replace("only "+start, start, end, "x")
	var markerErr *MarkerNotFoundError
	require.ErrorAs(t, err, &markerErr)
	require.Equal(t, end, markerErr.Marker)
}

func TestPrepareDoesNotWrite(t *testing.T) {
	content := start + "old" + end
	path := writeReadme(t, content)

	e, err := Prepare(path, start, end, "new")
	require.NoError(t, err)
	require.True(t, e.Changed())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, string(data))

	require.NoError(t, e.Apply())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, start+"\nnew\n"+end, string(data))

	e, err = Prepare(path, start, end, "new")
	require.NoError(t, err)
	require.False(t, e.Changed())
}

func TestEnsure(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		added   bool
	}{
		{"appends to text", "# Thesis\n\nIntro.", "# Thesis\n\nIntro.\n\n" + start + "\n" + end + "\n", true},
		{"appends after newline", "# Thesis\n", "# Thesis\n\n" + start + "\n" + end + "\n", true},
		{"keeps existing pair", "# T\n" + start + "x" + end + "\n", "# T\n" + start + "x" + end + "\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeReadme(t, tt.content)

			added, err := Ensure(path, start, end)
			require.NoError(t, err)
			require.Equal(t, tt.added, added)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, tt.want, string(data))
			require.NoError(t, Check(path, start, end))
		})
	}
}

func TestEnsureCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")

	added, err := Ensure(path, start, end)
	require.NoError(t, err)
	require.True(t, added)
	require.NoError(t, Check(path, start, end))
}

func TestEnsureLeavesLoneMarker(t *testing.T) {
	content := "# T\n" + start + "\nbody\n"
	path := writeReadme(t, content)

	_, err := Ensure(path, start, end)
	var markerErr *MarkerNotFoundError
	require.ErrorAs(t, err, &markerErr)
	require.Equal(t, end, markerErr.Marker)
	require.Equal(t, path, markerErr.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, string(data))
}
