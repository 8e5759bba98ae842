// Coordd is the fast coordination daemon for agent sessions.
//
// It classifies user messages into intents, enriches them with similar
// prior interactions, renders template responses, and optionally polishes
// the wording with a local model, all under a soft per-request time
// budget.
//
// Usage:
//
//	# Start the HTTP daemon
//	coordd serve
//
//	# Run as an MCP server on stdio
//	coordd mcp
//
//	# Show version information
//	coordd version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// configPath is the --config flag shared by all subcommands.
var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coordd",
	Short: "Fast coordination daemon for agent sessions",
	Long: `coordd classifies user messages into intents and answers them from
templates within a soft time budget, enriching from interaction memory
and optionally polishing the wording with a local model.`,
	Version: version,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coordd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ~/.config/coordd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
