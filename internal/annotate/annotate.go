package annotate

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/marcin-skalski/progress-tracker/internal/config"
	"github.com/marcin-skalski/progress-tracker/internal/git"
)

const (
	// MaxAnnotations is how many categorized commits are kept per run.
	MaxAnnotations = 10
	// LabelWidth is the display width labels are truncated to.
	LabelWidth = 50
)

var categoryLine = regexp.MustCompile(`^([^:]+): (.*)$`)

// Commits produced by the tracker itself.
var automatedMarkers = []string{"[skip ci]", "Update progress tracking"}

type Annotation struct {
	Date     time.Time
	SHA      string
	Category string
	Icon     string
	Color    string
	Text     string
}

// Select returns the categorized commits that become annotations: only subjects of
// the form "<Category>: <text>" with Category configured (exact match), the most
// recent MaxAnnotations of them, newest first.
func Select(commits []git.Commit, categories map[string]config.Category) []git.Commit {
	var out []git.Commit
	for _, c := range commits {
		if _, ok := match(c, categories); ok {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	if len(out) > MaxAnnotations {
		out = out[:MaxAnnotations]
	}
	return out
}

// Extract turns the commits picked by Select into annotations, oldest first.
func Extract(commits []git.Commit, categories map[string]config.Category) []Annotation {
	selected := Select(commits, categories)
	out := make([]Annotation, 0, len(selected))
	for i := len(selected) - 1; i >= 0; i-- {
		a, _ := match(selected[i], categories)
		out = append(out, a)
	}
	return out
}

func match(c git.Commit, categories map[string]config.Category) (Annotation, bool) {
	subject, _, _ := strings.Cut(c.Subject, "\n")
	for _, m := range automatedMarkers {
		if strings.Contains(subject, m) {
			return Annotation{}, false
		}
	}

	m := categoryLine.FindStringSubmatch(subject)
	if m == nil {
		return Annotation{}, false
	}
	cat, ok := categories[m[1]]
	if !ok {
		return Annotation{}, false
	}
	return Annotation{
		Date:     c.Date,
		SHA:      c.SHA,
		Category: m[1],
		Icon:     cat.Icon,
		Color:    cat.Color,
		Text:     m[2],
	}, true
}

// Label shortens the annotation text to width display cells.
func Label(a Annotation, width int) string {
	return runewidth.Truncate(a.Text, width, "...")
}
