package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "battlehexes",
	Short: "Turn-based hex battle server",
	Long: `battlehexes runs a hex-grid battle: it serves the board to the browser
client and plays CPU turns against the remote resolver.

Use "battlehexes [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

var (
	logFormat string
	logLevel  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", `log format, "text" or "json" (overrides LOG_FORMAT)`)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
