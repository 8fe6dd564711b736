package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marcin-skalski/progress-tracker/internal/annotate"
	"github.com/marcin-skalski/progress-tracker/internal/store"
)

var (
	t1 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	t2 = time.Date(2026, 6, 3, 18, 0, 0, 0, time.UTC)
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name    string
		records []store.Record
		want    Stats
	}{
		{
			name: "empty",
			want: Stats{},
		},
		{
			name:    "single record",
			records: []store.Record{{Timestamp: t1, WordCount: 400}},
			want:    Stats{Total: 400, Delta: 0, Average: 400, Commits: 1, First: t1, Last: t1},
		},
		{
			name:    "two records",
			records: []store.Record{{Timestamp: t1, WordCount: 100}, {Timestamp: t2, WordCount: 250}},
			want:    Stats{Total: 250, Delta: 150, Average: 125, Commits: 2, First: t1, Last: t2},
		},
		{
			name: "words removed",
			records: []store.Record{
				{Timestamp: t1, WordCount: 900},
				{Timestamp: t1.Add(time.Hour), WordCount: 1000},
				{Timestamp: t2, WordCount: 700},
			},
			want: Stats{Total: 700, Delta: -200, Average: 233, Commits: 3, First: t1, Last: t2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Compute(tt.records))
		})
	}
}

func TestMarkdown(t *testing.T) {
	s := Stats{Total: 12500, Delta: 1500, Average: 1250, Commits: 10}
	anns := []annotate.Annotation{
		{Date: t1, Category: "Notes", Icon: "📝", Text: "outline"},
		{Date: t2, Category: "Milestone", Icon: "🎯", Text: "done intro"},
	}
	now := time.Date(2026, 6, 4, 7, 5, 0, 0, time.FixedZone("X", 2*3600))

	md := Markdown(s, anns, "progress_plot.png", now)

	require.True(t, strings.HasPrefix(md, "## 📊 Manuscript Progress\n"))
	require.Contains(t, md, "![Progress Tracking](progress_plot.png)")
	require.Contains(t, md, "- **Total words:** 12,500\n")
	require.Contains(t, md, "- **Change:** +1,500\n")
	require.Contains(t, md, "- **Average per commit:** 1,250\n")
	require.Contains(t, md, "- **Commits tracked:** 10\n")
	require.True(t, strings.HasSuffix(md, "*Last updated: 2026-06-04 05:05:00 UTC*"))

	// Newest note first.
	first := strings.Index(md, "done intro")
	second := strings.Index(md, "outline")
	require.Greater(t, second, first)
	require.Contains(t, md, "- 🎯 **Milestone** done intro (2026-06-03)\n")
}

func TestMarkdownNegativeDeltaNoNotes(t *testing.T) {
	md := Markdown(Stats{Total: 90, Delta: -10, Average: 45, Commits: 2}, nil, "plot.png", t1)
	require.Contains(t, md, "- **Change:** -10\n")
	require.NotContains(t, md, "Recent notes")
}

func TestTerminal(t *testing.T) {
	out := Terminal(Compute([]store.Record{{Timestamp: t1, WordCount: 100}, {Timestamp: t2, WordCount: 250}}),
		[]annotate.Annotation{{Date: t2, Category: "Milestone", Icon: "🎯", Color: "#FF9800", Text: "done intro"}})

	require.Contains(t, out, "250 words")
	require.Contains(t, out, "+150")
	require.Contains(t, out, "125")
	require.Contains(t, out, "Milestone")
	require.Contains(t, out, "done intro")
	require.Contains(t, out, "06/03")
}

func TestTerminalEmpty(t *testing.T) {
	out := Terminal(Stats{}, nil)
	require.Contains(t, out, "no progress recorded yet")
}

func TestMarkdownNeutralizesComments(t *testing.T) {
	anns := []annotate.Annotation{
		{Date: t1, Category: "Notes", Icon: "📝", Text: "moved <!-- PROGRESS-TRACKER-END --> below intro"},
	}

	md := Markdown(Stats{Total: 1, Commits: 1}, anns, "p.png", t2)

	require.NotContains(t, md, "<!--")
	require.NotContains(t, md, "-->")
	require.Contains(t, md, "moved &lt;!-- PROGRESS-TRACKER-END --&gt; below intro")
}
