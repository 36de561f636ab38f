package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "uartdma",
	Short: "DMA-backed serial port driver toolkit",
	Long: `uartdma is a command line toolkit for the go-uartdma serial driver.

It drives host serial devices through the same asynchronous, DMA-style
driver core that runs on embedded targets: blocking transmit and receive
calls backed by background transfer engines and a circular receive buffer.

Defaults for the device and baud rate can be set in a config file
(~/.uartdma.yaml) or through UARTDMA_* environment variables.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.uartdma.yaml)")
	rootCmd.PersistentFlags().StringP("device", "d", "", "serial device path (e.g. /dev/ttyUSB0)")
	rootCmd.PersistentFlags().IntP("baud", "b", 115200, "baud rate")

	viper.BindPFlag("device", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".uartdma")
	}

	viper.SetEnvPrefix("UARTDMA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// requireDevice resolves the device path from args, flags, config file or
// environment, in that order.
func requireDevice(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if dev := viper.GetString("device"); dev != "" {
		return dev, nil
	}
	return "", fmt.Errorf("no device given; pass one as an argument, use --device, or set it in the config")
}
