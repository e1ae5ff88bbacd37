package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "venturelink-cli",
	Short: "VentureLink CLI tool",
	Long: `VentureLink CLI is a command-line companion for the VentureLink server.

Available commands:
  topics    List the bus topics the server routes client events onto
  events    List the WebSocket wire events clients may send and receive

Use "venturelink-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
