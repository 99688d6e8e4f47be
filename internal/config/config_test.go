package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.StateDir != ".mcp-agent" {
		t.Errorf("StateDir = %q, want .mcp-agent", cfg.StateDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryInterval != 2*time.Second {
		t.Errorf("RetryInterval = %v, want 2s", cfg.RetryInterval)
	}
	if cfg.MaxClarificationAttempts != 3 {
		t.Errorf("MaxClarificationAttempts = %d, want 3", cfg.MaxClarificationAttempts)
	}
	if !cfg.HistoryEnabled {
		t.Error("HistoryEnabled should default to true")
	}
	if cfg.Reasoning.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("Reasoning.APIKeyEnv = %q, want OPENAI_API_KEY", cfg.Reasoning.APIKeyEnv)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("missing file should yield defaults, MaxRetries = %d", cfg.MaxRetries)
	}
}

func TestLoadConfigMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
max_retries: 5
retry_interval: 500ms
reasoning:
  model: gpt-4o
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryInterval != 500*time.Millisecond {
		t.Errorf("RetryInterval = %v, want 500ms", cfg.RetryInterval)
	}
	if cfg.Reasoning.Model != "gpt-4o" {
		t.Errorf("Reasoning.Model = %q, want gpt-4o", cfg.Reasoning.Model)
	}
	// Untouched keys keep defaults.
	if cfg.StateDir != ".mcp-agent" {
		t.Errorf("StateDir = %q, want default", cfg.StateDir)
	}
	if cfg.MaxClarificationAttempts != 3 {
		t.Errorf("MaxClarificationAttempts = %d, want default 3", cfg.MaxClarificationAttempts)
	}
	if cfg.Reasoning.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("Reasoning.APIKeyEnv = %q, want default", cfg.Reasoning.APIKeyEnv)
	}
}

func TestLoadConfigExplicitZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
max_retries: 0
history_enabled: false
reasoning:
  temperature: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("explicit max_retries: 0 ignored, got %d", cfg.MaxRetries)
	}
	if cfg.HistoryEnabled {
		t.Error("explicit history_enabled: false ignored")
	}
	if cfg.Reasoning.Temperature != 0 {
		t.Errorf("explicit temperature: 0 ignored, got %v", cfg.Reasoning.Temperature)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("malformed YAML should return an error")
	}
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("retry_interval: nonsense"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("invalid retry_interval should return an error")
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	stateDir := "/tmp/agent-state"
	retries := 7
	cfg.MergeWithFlags(&stateDir, nil, &retries, nil)

	if cfg.StateDir != stateDir {
		t.Errorf("StateDir = %q, want %q", cfg.StateDir, stateDir)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.MaxRetries)
	}
	// Nil flags leave config untouched.
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty state dir", func(c *Config) { c.StateDir = "" }, "state_dir"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"negative interval", func(c *Config) { c.RetryInterval = -time.Second }, "retry_interval"},
		{"zero clarification budget", func(c *Config) { c.MaxClarificationAttempts = 0 }, "max_clarification_attempts"},
		{"zero context window", func(c *Config) { c.ContextWindow = 0 }, "context_window"},
		{"empty history path", func(c *Config) { c.HistoryDBPath = "" }, "history_db_path"},
		{"empty model", func(c *Config) { c.Reasoning.Model = "" }, "reasoning.model"},
		{"temperature out of range", func(c *Config) { c.Reasoning.Temperature = 3 }, "reasoning.temperature"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var cfgErr *models.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %T", err)
			}
			if cfgErr.Field != tc.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tc.field)
			}
		})
	}
}

func TestHistoryDBResolution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StateDir = "/var/agent"

	got := cfg.HistoryDB()
	want := filepath.Join("/var/agent", "history", "executions.db")
	if got != want {
		t.Errorf("HistoryDB() = %q, want %q", got, want)
	}

	cfg.HistoryDBPath = "/abs/executions.db"
	if cfg.HistoryDB() != "/abs/executions.db" {
		t.Errorf("absolute HistoryDBPath should pass through, got %q", cfg.HistoryDB())
	}
}

func TestGetAgentHomeEnvOverride(t *testing.T) {
	home := filepath.Join(t.TempDir(), "custom-home")
	t.Setenv("MCP_AGENT_HOME", home)

	got, err := GetAgentHome()
	if err != nil {
		t.Fatalf("GetAgentHome failed: %v", err)
	}
	if got != home {
		t.Errorf("GetAgentHome() = %q, want %q", got, home)
	}
	if _, err := os.Stat(home); err != nil {
		t.Errorf("home directory not created: %v", err)
	}
}
