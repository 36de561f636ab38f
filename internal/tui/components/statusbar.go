package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	uartdma "github.com/allbin/go-uartdma"
	"github.com/allbin/go-uartdma/internal/tui/colors"
)

// StatusBar is the single-line session header: input mode, device, connection
// indicator and line parameters.
type StatusBar struct {
	device    string
	width     int
	config    uartdma.Config
	connected bool
	err       error
}

func NewStatusBar(device string, config uartdma.Config) *StatusBar {
	return &StatusBar{device: device, config: config}
}

func (sb *StatusBar) SetWidth(width int)   { sb.width = width }
func (sb *StatusBar) SetConnected(up bool) { sb.connected = up }
func (sb *StatusBar) SetError(err error)   { sb.err = err }

func flowControlToString(fc uartdma.FlowControl) string {
	switch fc {
	case uartdma.FlowControlNone:
		return "None"
	case uartdma.FlowControlCTS:
		return "CTS"
	case uartdma.FlowControlRTS:
		return "RTS"
	case uartdma.FlowControlCTSRTS:
		return "RTS/CTS"
	default:
		return "Unknown"
	}
}

func parityToString(p uartdma.Parity) string {
	switch p {
	case uartdma.ParityEven:
		return "E"
	case uartdma.ParityOdd:
		return "O"
	default:
		return "N"
	}
}

// View renders the status bar. inputMode is the vim-style mode label,
// timestamp the wall-clock shown on the right.
func (sb *StatusBar) View(inputMode, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	var modeStyle lipgloss.Style
	if inputMode == "INSERT" {
		modeStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Green).
			Bold(true).
			Padding(0, 1)
	} else {
		modeStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Blue).
			Bold(true).
			Padding(0, 1)
	}
	mode := modeStyle.Render(inputMode)

	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.device)

	var indicator string
	switch {
	case sb.err != nil:
		indicator = lipgloss.NewStyle().Foreground(colors.Red).Render("✗")
	case sb.connected:
		indicator = lipgloss.NewStyle().Foreground(colors.Green).Render("●")
	default:
		indicator = lipgloss.NewStyle().Foreground(colors.Yellow).Render("○")
	}

	line := fmt.Sprintf("⚡ %d baud %d%s%d %s",
		sb.config.BaudRate,
		sb.config.DataBits,
		parityToString(sb.config.Parity),
		sb.config.StopBits,
		flowControlToString(sb.config.FlowControl))
	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(line)

	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	left := lipgloss.JoinHorizontal(lipgloss.Left, mode, port, indicator)
	right := lipgloss.JoinHorizontal(lipgloss.Left, details, clock)

	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	bar := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width)

	return bar.Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right))
}
