package annotate

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcin-skalski/progress-tracker/internal/config"
	"github.com/marcin-skalski/progress-tracker/internal/git"
)

var base = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func commit(day int, subject string) git.Commit {
	return git.Commit{
		SHA:     fmt.Sprintf("%040d", day),
		Date:    base.AddDate(0, 0, day),
		Subject: subject,
	}
}

func TestExtractMatchesConfiguredCategories(t *testing.T) {
	categories := config.DefaultCategories()
	commits := []git.Commit{
		commit(5, "Milestone: done intro"),
		commit(4, "milestone: lowercase is not a category"),
		commit(3, "Draft: not configured"),
		commit(2, "plain message"),
		commit(1, "Notes:missing space"),
		commit(0, "Fix: broken \\cite"),
	}

	got := Extract(commits, categories)
	require.Len(t, got, 2)

	require.Equal(t, "Fix", got[0].Category)
	require.Equal(t, "broken \\cite", got[0].Text)
	require.Equal(t, categories["Fix"].Icon, got[0].Icon)
	require.Equal(t, categories["Fix"].Color, got[0].Color)

	require.Equal(t, "Milestone", got[1].Category)
	require.Equal(t, "done intro", got[1].Text)
	require.True(t, got[1].Date.Equal(base.AddDate(0, 0, 5)))
}

func TestExtractKeepsMostRecentTen(t *testing.T) {
	var commits []git.Commit
	for day := 0; day < 25; day++ {
		commits = append(commits, commit(day, fmt.Sprintf("Progress: day %d", day)))
	}

	got := Extract(commits, config.DefaultCategories())
	require.Len(t, got, MaxAnnotations)
	require.Equal(t, "day 15", got[0].Text)
	require.Equal(t, "day 24", got[len(got)-1].Text)
	for i := 1; i < len(got); i++ {
		require.True(t, got[i-1].Date.Before(got[i].Date), "annotations must be ascending")
	}
}

func TestExtractSkipsAutomatedCommits(t *testing.T) {
	commits := []git.Commit{
		commit(2, "Progress: Update progress tracking [skip ci]"),
		commit(1, "Notes: regenerate figures [skip ci]"),
		commit(0, "Notes: real note"),
	}

	got := Extract(commits, config.DefaultCategories())
	require.Len(t, got, 1)
	require.Equal(t, "real note", got[0].Text)
}

func TestExtractCustomCategories(t *testing.T) {
	categories := map[string]config.Category{
		"Chapter 2": {Icon: "2", Color: "#000000"},
	}
	got := Extract([]git.Commit{commit(0, "Chapter 2: first draft"), commit(1, "Notes: x")}, categories)
	require.Len(t, got, 1)
	require.Equal(t, "Chapter 2", got[0].Category)
}

func TestExtractEmpty(t *testing.T) {
	require.Empty(t, Extract(nil, config.DefaultCategories()))
	require.Empty(t, Extract([]git.Commit{commit(0, "Notes: x")}, nil))
}

func TestLabel(t *testing.T) {
	short := Annotation{Text: "done intro"}
	require.Equal(t, "done intro", Label(short, LabelWidth))

	long := Annotation{Text: strings.Repeat("a", 80)}
	got := Label(long, LabelWidth)
	require.Equal(t, strings.Repeat("a", 47)+"...", got)

	wide := Annotation{Text: "日本語のテキスト"}
	require.Equal(t, "日本...", Label(wide, 8))
}

func TestSelectNewestFirst(t *testing.T) {
	commits := []git.Commit{
		commit(1, "Notes: a"),
		commit(7, "plain"),
		commit(3, "Fix: b"),
	}

	got := Select(commits, config.DefaultCategories())
	require.Len(t, got, 2)
	require.Equal(t, "Fix: b", got[0].Subject)
	require.Equal(t, "Notes: a", got[1].Subject)
}
