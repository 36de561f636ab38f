package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	uartdma "github.com/allbin/go-uartdma"
	"github.com/allbin/go-uartdma/hostport"
	"github.com/allbin/go-uartdma/ring"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port> <output-file>",
	Short: "Capture serial data to a file",
	Long: `Capture incoming serial data to a file for later parsing.

The driver runs in buffered mode: a background transfer engine fills a
circular receive buffer and the capture loop drains whatever has arrived.
Runs continuously until interrupted (Ctrl+C).

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  uartdma capture /dev/ttyUSB0 data.log
  uartdma capture /dev/ttyUSB0 output.txt --baud 9600
  uartdma capture /dev/ttyUSB0 capture.log --console`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		device := args[0]
		outputPath := args[1]

		ringSize, _ := cmd.Flags().GetInt("ring")
		showConsole, _ := cmd.Flags().GetBool("console")
		flowControl, _ := cmd.Flags().GetString("flow-control")

		opts := []uartdma.Option{
			uartdma.WithBaudRate(viper.GetInt("baud")),
		}
		if fc, ok := parseFlowControl(flowControl); ok {
			opts = append(opts, uartdma.WithFlowControl(fc))
		}

		if err := runCapture(device, outputPath, ringSize, showConsole, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringP("flow-control", "f", "none", "Flow control: none, cts, rts, ctsrts")
	captureCmd.Flags().Int("ring", 4096, "Receive ring buffer size")
	captureCmd.Flags().BoolP("console", "c", false, "Display incoming data on console while capturing")
}

func runCapture(device, outputPath string, ringSize int, showConsole bool, opts ...uartdma.Option) error {
	port, err := hostport.Open(device)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer port.Close()

	driver := &uartdma.Driver{}
	if err := driver.Init(port.Peripheral(), ring.New(ringSize), opts...); err != nil {
		return fmt.Errorf("failed to initialize driver: %w", err)
	}
	defer driver.Deinit()

	file, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "Capturing data from %s to %s\n", device, outputPath)
	if showConsole {
		fmt.Fprintf(os.Stderr, "Console display enabled\n")
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	buffer := make([]byte, ringSize)
	bytesWritten := int64(0)
	startTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			duration := time.Since(startTime)
			fmt.Fprintf(os.Stderr, "\nCapture complete: %d bytes written in %v\n",
				bytesWritten, duration.Round(time.Millisecond))
			return nil
		default:
			n := driver.BytesAvailable()
			if n == 0 {
				// Wait for one byte; the timeout keeps Ctrl+C responsive.
				err := driver.Receive(buffer[:1], 500*time.Millisecond)
				if errors.Is(err, uartdma.ErrTimeout) {
					continue
				}
				if err != nil {
					return fmt.Errorf("read error: %w", err)
				}
				n = 1
			} else {
				if n > len(buffer) {
					n = len(buffer)
				}
				if err := driver.Receive(buffer[:n], time.Second); err != nil {
					return fmt.Errorf("read error: %w", err)
				}
			}

			written, err := file.Write(buffer[:n])
			if err != nil {
				return fmt.Errorf("write error: %w", err)
			}
			bytesWritten += int64(written)

			if showConsole {
				os.Stdout.Write(buffer[:n])
			}
		}
	}
}
