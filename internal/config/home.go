package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetAgentHome returns the agent state directory.
// Priority order:
//  1. MCP_AGENT_HOME environment variable (if set)
//  2. .mcp-agent in the current working directory
//
// The directory is created if it doesn't exist.
func GetAgentHome() (string, error) {
	if home := os.Getenv("MCP_AGENT_HOME"); home != "" {
		if err := os.MkdirAll(home, 0o755); err != nil {
			return "", fmt.Errorf("create agent home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	home := filepath.Join(cwd, ".mcp-agent")
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("create agent home directory: %w", err)
	}
	return home, nil
}
