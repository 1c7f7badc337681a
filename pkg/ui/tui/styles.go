package tui

import "github.com/charmbracelet/lipgloss"

var (
	skyBlue     = lipgloss.Color("#1185FE")
	softGreen   = lipgloss.Color("#39FF14")
	warnRed     = lipgloss.Color("#FF4040")
	dimWhite    = lipgloss.Color("#B0B0B0")
	brightWhite = lipgloss.Color("#FFFFFF")

	titleStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Background(skyBlue).
			Bold(true).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(skyBlue).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	postedStyle = lipgloss.NewStyle().
			Foreground(softGreen)

	failedStyle = lipgloss.NewStyle().
			Foreground(warnRed).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Italic(true)
)
