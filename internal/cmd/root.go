// Package cmd wires the CLI surface: the interactive run loop, session
// management, and execution-history inspection.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for mcp-agent
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-agent",
		Short: "Adaptive task-execution agent",
		Long: `mcp-agent turns free-text requests into ordered tool invocations,
executes them one at a time with retry and self-correction, and asks
the user for clarification when a request leaves a value ambiguous.

Session state persists under .mcp-agent/ so an interrupted run can be
resumed exactly where it stopped.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewSessionsCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
