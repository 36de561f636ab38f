package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	uartdma "github.com/allbin/go-uartdma"
	"github.com/allbin/go-uartdma/hostport"
	"github.com/allbin/go-uartdma/internal/tui/components"
	"github.com/allbin/go-uartdma/internal/tui/keys"
	"github.com/allbin/go-uartdma/internal/tui/models"
	"github.com/allbin/go-uartdma/ring"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor [port]",
	Short: "Interactive serial traffic monitor",
	Long: `Monitor serial traffic in a terminal interface.

Incoming data is drained continuously from the driver's receive ring and
shown with timestamps, hex and ASCII. Press i to enter insert mode and send
data through the blocking transmit path; Esc returns to normal mode.

Example usage:
  uartdma monitor /dev/ttyUSB0
  uartdma monitor /dev/ttyUSB0 --baud 9600
  uartdma monitor --device /dev/ttyACM0 --flow-control ctsrts`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device, err := requireDevice(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ringSize, _ := cmd.Flags().GetInt("ring")
		flowControl, _ := cmd.Flags().GetString("flow-control")

		opts := []uartdma.Option{
			uartdma.WithBaudRate(viper.GetInt("baud")),
		}
		if fc, ok := parseFlowControl(flowControl); ok {
			opts = append(opts, uartdma.WithFlowControl(fc))
		}

		if err := runMonitor(device, ringSize, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringP("flow-control", "f", "none", "Flow control: none, cts, rts, ctsrts")
	monitorCmd.Flags().Int("ring", 4096, "Receive ring buffer size")
}

// monitorModel is the Bubble Tea model for the monitor command.
type monitorModel struct {
	session *models.Session
	traffic *components.TrafficLog
	status  *components.StatusBar
	stats   components.StatsPanel
	input   textinput.Model
	help    help.Model
	keys    keys.MonitorKeys

	showHelp bool
	width    int
	height   int
}

func runMonitor(device string, ringSize int, opts ...uartdma.Option) error {
	config := uartdma.DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return err
		}
	}

	port, err := hostport.Open(device)
	if err != nil {
		return err
	}
	defer port.Close()

	driver := &uartdma.Driver{}
	if err := driver.Init(port.Peripheral(), ring.New(ringSize), opts...); err != nil {
		return err
	}
	defer driver.Deinit()

	session := models.NewSession(device, ringSize)
	session.SetDriver(driver)
	session.SetConnected(true, nil)

	input := textinput.New()
	input.Placeholder = "Type message and press Enter to send..."

	m := &monitorModel{
		session: session,
		traffic: components.NewTrafficLog(),
		status:  components.NewStatusBar(device, config),
		input:   input,
		help:    help.New(),
		keys:    keys.NewMonitorKeys(),
	}
	m.status.SetConnected(true)

	p := tea.NewProgram(m, tea.WithAltScreen())

	go receivePump(p, session)

	_, err = p.Run()
	session.Cancel()
	return err
}

// receivePump drains the driver's receive ring and forwards the data to the
// TUI. The short timeout keeps it responsive to shutdown.
func receivePump(p *tea.Program, session *models.Session) {
	driver := session.Driver()
	buf := make([]byte, 4096)

	for {
		select {
		case <-session.Context().Done():
			return
		default:
		}

		n := driver.BytesAvailable()
		if n == 0 {
			err := driver.Receive(buf[:1], 500*time.Millisecond)
			if errors.Is(err, uartdma.ErrTimeout) {
				continue
			}
			if err != nil {
				if session.Context().Err() == nil {
					p.Send(models.StatusMsg{Connected: false, Err: err})
				}
				return
			}
			n = 1
		} else {
			if n > len(buf) {
				n = len(buf)
			}
			if err := driver.Receive(buf[:n], time.Second); err != nil {
				if session.Context().Err() == nil {
					p.Send(models.StatusMsg{Connected: false, Err: err})
				}
				return
			}
		}

		data := append([]byte(nil), buf[:n]...)
		session.CountRX(len(data))
		p.Send(models.TrafficMsg{Time: time.Now(), Data: data})
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return tea.Batch(statsTick(), textinput.Blink)
}

func statsTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return models.TickMsg(t)
	})
}

// transmitCmd sends data through the driver off the UI goroutine and reports
// the outcome back as a traffic entry.
func (m *monitorModel) transmitCmd(data []byte) tea.Cmd {
	driver := m.session.Driver()
	session := m.session
	return func() tea.Msg {
		err := driver.Transmit(data)
		session.CountTX(len(data), err)
		return models.TrafficMsg{Time: time.Now(), Data: data, TX: true, Err: err}
	}
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.status.SetWidth(msg.Width)
		m.traffic.SetSize(msg.Width, m.trafficHeight())
		m.input.Width = msg.Width - 6
		return m, nil

	case models.StatusMsg:
		m.session.SetConnected(msg.Connected, msg.Err)
		m.status.SetConnected(msg.Connected)
		m.status.SetError(msg.Err)
		return m, nil

	case models.TrafficMsg:
		m.traffic.Add(components.Entry{Time: msg.Time, Data: msg.Data, TX: msg.TX, Err: msg.Err})
		return m, nil

	case models.TickMsg:
		return m, statsTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.traffic.Update(msg)
}

func (m *monitorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session.Mode() == models.InputModeInsert {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.session.SetMode(models.InputModeNormal)
			m.input.Blur()
			return m, nil
		case msg.Type == tea.KeyEnter:
			text := m.input.Value()
			m.input.SetValue("")
			if text == "" {
				return m, nil
			}
			return m, m.transmitCmd([]byte(text + "\n"))
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.traffic.SetSize(m.width, m.trafficHeight())
		return m, nil
	case key.Matches(msg, m.keys.InsertMode):
		m.session.SetMode(models.InputModeInsert)
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Clear):
		m.traffic.Clear()
		return m, nil
	case key.Matches(msg, m.keys.ToggleHex):
		m.traffic.ToggleHex()
		return m, nil
	}

	return m, m.traffic.Update(msg)
}

// trafficHeight is the viewport height left over after the fixed chrome:
// status bar, input line, stats panel and optional help.
func (m *monitorModel) trafficHeight() int {
	h := m.height - 1 - 3 - 8
	if m.showHelp {
		h -= 2
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m *monitorModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	bar := m.status.View(m.session.Mode().String(), time.Now().Format("15:04:05"))
	traffic := m.traffic.View()
	stats := m.stats.View(m.session.Stats())
	inputLine := lipgloss.NewStyle().Padding(0, 1).Render(m.input.View())

	sections := []string{bar, traffic, stats, inputLine}
	if m.showHelp {
		sections = append(sections, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
