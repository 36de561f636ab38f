package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	uartdma "github.com/allbin/go-uartdma"
	"github.com/allbin/go-uartdma/hostport"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] [port]",
	Short: "Send data to a serial port",
	Long: `Send data through the driver's blocking transmit path.

Data can be provided as:
- Command line argument: uartdma send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | uartdma send /dev/ttyUSB0
- Interactive mode: uartdma send /dev/ttyUSB0 (prompts for input)

Example usage:
  uartdma send "Hello World" /dev/ttyUSB0
  uartdma send "AT+GMR" /dev/ttyUSB0 --newline
  echo "test" | uartdma send /dev/ttyUSB0
  uartdma send 48656c6c6f /dev/ttyUSB0 --hex`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		var data, device string
		var err error

		switch len(args) {
		case 2:
			data = args[0]
			device = args[1]
		default:
			device, err = requireDevice(args)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			stat, statErr := os.Stdin.Stat()
			if statErr != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, readErr := io.ReadAll(os.Stdin)
				if readErr != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", readErr)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		flowControl, _ := cmd.Flags().GetString("flow-control")

		if hexMode {
			decoded, err := parseHexString(data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
			data = decoded
		}
		if addNewline && !hexMode {
			data += "\n"
		}

		opts := []uartdma.Option{
			uartdma.WithBaudRate(viper.GetInt("baud")),
		}
		if fc, ok := parseFlowControl(flowControl); ok {
			opts = append(opts, uartdma.WithFlowControl(fc))
		}

		if err := sendData(device, []byte(data), opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringP("flow-control", "f", "none", "Flow control: none, cts, rts, ctsrts")
	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
}

func parseFlowControl(s string) (uartdma.FlowControl, bool) {
	switch strings.ToLower(s) {
	case "cts":
		return uartdma.FlowControlCTS, true
	case "rts":
		return uartdma.FlowControlRTS, true
	case "ctsrts", "rtscts":
		return uartdma.FlowControlCTSRTS, true
	default:
		return uartdma.FlowControlNone, false
	}
}

func promptForData() string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func parseHexString(hexStr string) (string, error) {
	hexStr = strings.ReplaceAll(hexStr, " ", "")
	hexStr = strings.ReplaceAll(hexStr, "0x", "")
	hexStr = strings.ReplaceAll(hexStr, "0X", "")

	if len(hexStr)%2 != 0 {
		return "", fmt.Errorf("hex string must have even length")
	}

	var result strings.Builder
	for i := 0; i < len(hexStr); i += 2 {
		hexByte := hexStr[i : i+2]
		var b byte
		if _, err := fmt.Sscanf(hexByte, "%x", &b); err != nil {
			return "", fmt.Errorf("invalid hex byte '%s': %v", hexByte, err)
		}
		result.WriteByte(b)
	}
	return result.String(), nil
}

func sendData(device string, data []byte, opts ...uartdma.Option) error {
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)
	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)
	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), device)

	port, err := hostport.Open(device)
	if err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}
	defer port.Close()

	// Transmit only, no receive ring needed.
	driver := &uartdma.Driver{}
	if err := driver.Init(port.Peripheral(), nil, opts...); err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}
	defer driver.Deinit()

	fmt.Printf("%s Connected successfully\n", successStyle.Render("✓"))
	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))

	if err := driver.Transmit(data); err != nil {
		return fmt.Errorf("%s failed to send data: %v", errorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), len(data))

	preview := string(data)
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	preview = strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '·'
		}
		return r
	}, preview)
	fmt.Printf("%s Data: %s\n", infoStyle.Render("📋"), preview)

	return nil
}
