package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorNavy  = lipgloss.Color("17")
	ColorWhite = lipgloss.Color("255")

	tierColors = map[string]lipgloss.Color{
		"INFO":     lipgloss.Color("39"),
		"URGENT":   lipgloss.Color("208"),
		"CRITICAL": lipgloss.Color("196"),
	}

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("7"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	statusLineStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite)

	takeoverBannerStyle = lipgloss.NewStyle().
				Bold(true).
				Reverse(true)

	contestBadgeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("46"))
)

func tierStyle(tier string) lipgloss.Style {
	c, ok := tierColors[tier]
	if !ok {
		c = lipgloss.Color("250")
	}
	return lipgloss.NewStyle().Foreground(c)
}
