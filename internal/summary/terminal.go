package summary

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/marcin-skalski/progress-tracker/internal/annotate"
)

// Terminal renders the stats and recent annotations for a terminal.
func Terminal(s Stats, annotations []annotate.Annotation) string {
	var b strings.Builder

	header := fmt.Sprintf("progress-tracker │ %s words │ %d commits", humanize.Comma(int64(s.Total)), s.Commits)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if s.Commits == 0 {
		b.WriteString(emptyStyle.Render("  (no progress recorded yet)"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(row("Total words", valueStyle.Render(humanize.Comma(int64(s.Total)))))
	b.WriteString(row("Change", valueStyle.Foreground(deltaColor(s.Delta)).Render(signed(s.Delta))))
	b.WriteString(row("Average per commit", valueStyle.Render(humanize.Comma(int64(s.Average)))))
	b.WriteString(row("Tracking since", dateStyle.Render(s.First.Format("2006-01-02"))))

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Recent notes (%d)", len(annotations))))
	b.WriteString("\n")
	if len(annotations) == 0 {
		b.WriteString(emptyStyle.Render("  (no categorized commits)"))
		b.WriteString("\n")
		return b.String()
	}

	for i := len(annotations) - 1; i >= 0; i-- {
		a := annotations[i]
		catStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(a.Color)).Bold(true)
		fmt.Fprintf(&b, "  %s %s %s %s\n",
			a.Icon,
			catStyle.Render(a.Category),
			annotate.Label(a, annotate.LabelWidth),
			dateStyle.Render(a.Date.Format("01/02")),
		)
	}
	return b.String()
}

func row(label, value string) string {
	return "  " + labelStyle.Render(label) + value + "\n"
}
