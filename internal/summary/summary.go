package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marcin-skalski/progress-tracker/internal/annotate"
	"github.com/marcin-skalski/progress-tracker/internal/store"
)

type Stats struct {
	Total   int
	Delta   int
	Average int // words per recorded commit
	Commits int
	First   time.Time
	Last    time.Time
}

// Compute summarizes the log: latest count, change since the first record and
// the latest count spread over all recorded commits.
func Compute(records []store.Record) Stats {
	if len(records) == 0 {
		return Stats{}
	}
	first, last := records[0], records[len(records)-1]
	return Stats{
		Total:   last.WordCount,
		Delta:   last.WordCount - first.WordCount,
		Average: int(math.Round(float64(last.WordCount) / float64(len(records)))),
		Commits: len(records),
		First:   first.Timestamp,
		Last:    last.Timestamp,
	}
}

// Commit text must not open or close an HTML comment inside the section: the
// README markers are comments.
var commentDelims = strings.NewReplacer("<!--", "&lt;!--", "-->", "--&gt;")

func signed(n int) string {
	if n > 0 {
		return "+" + humanize.Comma(int64(n))
	}
	return humanize.Comma(int64(n))
}

// Markdown renders the README section body: heading, chart, stats, recent notes.
func Markdown(s Stats, annotations []annotate.Annotation, imageRef string, now time.Time) string {
	var b strings.Builder
	b.WriteString("## 📊 Manuscript Progress\n\n")
	fmt.Fprintf(&b, "![Progress Tracking](%s)\n\n", imageRef)

	fmt.Fprintf(&b, "- **Total words:** %s\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(&b, "- **Change:** %s\n", signed(s.Delta))
	fmt.Fprintf(&b, "- **Average per commit:** %s\n", humanize.Comma(int64(s.Average)))
	fmt.Fprintf(&b, "- **Commits tracked:** %d\n", s.Commits)

	if len(annotations) > 0 {
		b.WriteString("\n### Recent notes\n\n")
		for i := len(annotations) - 1; i >= 0; i-- {
			a := annotations[i]
			label := commentDelims.Replace(annotate.Label(a, annotate.LabelWidth))
			fmt.Fprintf(&b, "- %s **%s** %s (%s)\n", a.Icon, commentDelims.Replace(a.Category), label, a.Date.Format("2006-01-02"))
		}
	}

	fmt.Fprintf(&b, "\n*Last updated: %s UTC*", now.UTC().Format("2006-01-02 15:04:05"))
	return b.String()
}
