package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/go-uartdma/internal/tui/colors"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	// Error styles
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red).
			Align(lipgloss.Center)

	// Traffic direction indicators
	TXStyle = lipgloss.NewStyle().
		Foreground(colors.Peach).
		Bold(true)

	RXStyle = lipgloss.NewStyle().
		Foreground(colors.Sky).
		Bold(true)

	TXErrorStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)

	// Stats panel
	StatsTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Teal)
)
