package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/allbin/go-uartdma/internal/tui/styles"
)

// Entry is one logged transfer, in either direction.
type Entry struct {
	Time time.Time
	Data []byte
	TX   bool
	Err  error
}

const maxEntries = 2000

// TrafficLog is the scrolling transfer log backed by a viewport.
type TrafficLog struct {
	vp      viewport.Model
	entries []Entry
	showHex bool
	ready   bool
}

func NewTrafficLog() *TrafficLog {
	return &TrafficLog{
		showHex: true,
	}
}

func (t *TrafficLog) SetSize(width, height int) {
	if !t.ready {
		t.vp = viewport.New(width, height)
		t.ready = true
	} else {
		t.vp.Width = width
		t.vp.Height = height
	}
	t.render()
}

func (t *TrafficLog) Add(e Entry) {
	t.entries = append(t.entries, e)
	if len(t.entries) > maxEntries {
		t.entries = t.entries[len(t.entries)-maxEntries:]
	}
	t.render()
}

func (t *TrafficLog) Clear() {
	t.entries = nil
	t.render()
}

func (t *TrafficLog) ToggleHex() {
	t.showHex = !t.showHex
	t.render()
}

func (t *TrafficLog) Update(msg tea.Msg) tea.Cmd {
	if !t.ready {
		return nil
	}
	var cmd tea.Cmd
	t.vp, cmd = t.vp.Update(msg)
	return cmd
}

func (t *TrafficLog) View() string {
	if !t.ready {
		return "Waiting for terminal size..."
	}
	return t.vp.View()
}

func (t *TrafficLog) render() {
	if !t.ready {
		return
	}
	lines := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		lines = append(lines, t.formatEntry(e))
	}
	t.vp.SetContent(strings.Join(lines, "\n"))
	t.vp.GotoBottom()
}

func (t *TrafficLog) formatEntry(e Entry) string {
	timestamp := styles.TimestampStyle.Render(e.Time.Format("15:04:05.000"))

	var indicator string
	switch {
	case e.TX && e.Err != nil:
		indicator = styles.TXErrorStyle.Render("↗ TX ✗")
	case e.TX:
		indicator = styles.TXStyle.Render("↗ TX ✓")
	default:
		indicator = styles.RXStyle.Render("↙ RX")
	}

	var body string
	if e.Err != nil {
		body = styles.ErrorStyle.Render(e.Err.Error())
	} else if t.showHex {
		body = fmt.Sprintf("% X  %s", e.Data, printable(e.Data))
	} else {
		body = printable(e.Data)
	}

	return fmt.Sprintf("%s %s %s (%d bytes)", timestamp, indicator, body, len(e.Data))
}

// printable replaces non-printable bytes with dots for display.
func printable(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		if b >= 32 && b <= 126 {
			sb.WriteByte(b)
		} else {
			sb.WriteRune('·')
		}
	}
	return sb.String()
}
