// Co2viewer is a terminal monitor for networked CO2 sensors.
//
// It polls a UD-CO2S style sensor for its current ppm reading, remembers the
// sensor address between runs, and draws the reading as a color-coded donut
// gauge. When no working address is configured it shows a settings form with
// mDNS suggestions instead.
//
// Usage:
//
//	co2viewer [command] [flags]
//
// Running without arguments launches the full-screen monitor.
// See 'co2viewer --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/co2viewer/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errReported) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "co2viewer",
	Short: "CO2 sensor monitor",
	Long: `A terminal monitor for networked CO2 sensors.

The sensor is polled at a fixed interval and its reading is drawn as a
donut gauge colored by concentration. The sensor address is stored in the
application data directory so the monitor reconnects on the next run.

If no command is specified, the interactive monitor will launch automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadPreferences(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the monitor when no subcommand provided
		return runMonitor(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("co2viewer %s\n", version.Full())
	},
}
