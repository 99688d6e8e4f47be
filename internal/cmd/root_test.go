package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()
	assert.Equal(t, "mcp-agent", root.Use)
	assert.True(t, root.SilenceUsage)

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "sessions")
	assert.Contains(t, names, "history")
}

func TestRunCommandFlags(t *testing.T) {
	run := NewRunCommand()
	for _, flag := range []string{"config", "state-dir", "resume", "once", "verbose"} {
		require.NotNil(t, run.Flags().Lookup(flag), "missing flag %q", flag)
	}
}

func TestSessionsSubcommands(t *testing.T) {
	sessions := NewSessionsCommand()
	var names []string
	for _, sub := range sessions.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show", "archive", "export"}, names)
}

func TestHistorySubcommands(t *testing.T) {
	hist := NewHistoryCommand()
	var names []string
	for _, sub := range hist.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"stats", "clear"}, names)
}
