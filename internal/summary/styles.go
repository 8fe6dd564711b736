package summary

import "github.com/charmbracelet/lipgloss"

var (
	colorPositive = lipgloss.Color("46")  // green
	colorNegative = lipgloss.Color("196") // red
	colorNeutral  = lipgloss.Color("240") // gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingLeft(1).
			PaddingRight(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(20)

	valueStyle = lipgloss.NewStyle().Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func deltaColor(n int) lipgloss.Color {
	switch {
	case n > 0:
		return colorPositive
	case n < 0:
		return colorNegative
	default:
		return colorNeutral
	}
}
