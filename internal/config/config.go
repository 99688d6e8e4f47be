// Package config loads agent configuration from YAML with defaults and
// CLI-flag overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

// ReasoningConfig holds settings for the reasoning collaborator.
type ReasoningConfig struct {
	// Model is the chat model used for intent classification, planning,
	// judging, and interpretation.
	Model string `yaml:"model"`

	// BaseURL overrides the API endpoint (empty = provider default).
	BaseURL string `yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// Temperature for all reasoning calls. Kept low so plans and
	// judgments stay reproducible.
	Temperature float64 `yaml:"temperature"`
}

// Config represents agent configuration options.
type Config struct {
	// StateDir is the directory holding session state, logs, and history.
	StateDir string `yaml:"state_dir"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// MaxRetries bounds automatic retries per task.
	MaxRetries int `yaml:"max_retries"`

	// RetryInterval is the wait between retries of transient failures.
	RetryInterval time.Duration `yaml:"retry_interval"`

	// MaxClarificationAttempts bounds questions asked per ambiguous
	// parameter before the task is abandoned.
	MaxClarificationAttempts int `yaml:"max_clarification_attempts"`

	// ContextWindow is the number of recent conversation entries handed
	// to the reasoning collaborator.
	ContextWindow int `yaml:"context_window"`

	// HistoryDBPath is the path to the execution history database.
	// Relative paths are resolved against StateDir.
	HistoryDBPath string `yaml:"history_db_path"`

	// HistoryEnabled controls execution history recording.
	HistoryEnabled bool `yaml:"history_enabled"`

	// Reasoning holds reasoning collaborator settings.
	Reasoning ReasoningConfig `yaml:"reasoning"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		StateDir:                 ".mcp-agent",
		LogLevel:                 "info",
		MaxRetries:               3,
		RetryInterval:            2 * time.Second,
		MaxClarificationAttempts: 3,
		ContextWindow:            10,
		HistoryDBPath:            filepath.Join("history", "executions.db"),
		HistoryEnabled:           true,
		Reasoning: ReasoningConfig{
			Model:       "gpt-4o-mini",
			BaseURL:     "",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.1,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file returns default configuration without error; a malformed
// file returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Temporary struct so the duration can be given as "2s" style strings.
	type yamlReasoning struct {
		Model       string   `yaml:"model"`
		BaseURL     string   `yaml:"base_url"`
		APIKeyEnv   string   `yaml:"api_key_env"`
		Temperature *float64 `yaml:"temperature"`
	}
	type yamlConfig struct {
		StateDir                 string        `yaml:"state_dir"`
		LogLevel                 string        `yaml:"log_level"`
		MaxRetries               *int          `yaml:"max_retries"`
		RetryInterval            string        `yaml:"retry_interval"`
		MaxClarificationAttempts *int          `yaml:"max_clarification_attempts"`
		ContextWindow            *int          `yaml:"context_window"`
		HistoryDBPath            string        `yaml:"history_db_path"`
		HistoryEnabled           *bool         `yaml:"history_enabled"`
		Reasoning                yamlReasoning `yaml:"reasoning"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if yamlCfg.StateDir != "" {
		cfg.StateDir = yamlCfg.StateDir
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.MaxRetries != nil {
		cfg.MaxRetries = *yamlCfg.MaxRetries
	}
	if yamlCfg.RetryInterval != "" {
		interval, err := time.ParseDuration(yamlCfg.RetryInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid retry_interval %q: %w", yamlCfg.RetryInterval, err)
		}
		cfg.RetryInterval = interval
	}
	if yamlCfg.MaxClarificationAttempts != nil {
		cfg.MaxClarificationAttempts = *yamlCfg.MaxClarificationAttempts
	}
	if yamlCfg.ContextWindow != nil {
		cfg.ContextWindow = *yamlCfg.ContextWindow
	}
	if yamlCfg.HistoryDBPath != "" {
		cfg.HistoryDBPath = yamlCfg.HistoryDBPath
	}
	if yamlCfg.HistoryEnabled != nil {
		cfg.HistoryEnabled = *yamlCfg.HistoryEnabled
	}
	if yamlCfg.Reasoning.Model != "" {
		cfg.Reasoning.Model = yamlCfg.Reasoning.Model
	}
	if yamlCfg.Reasoning.BaseURL != "" {
		cfg.Reasoning.BaseURL = yamlCfg.Reasoning.BaseURL
	}
	if yamlCfg.Reasoning.APIKeyEnv != "" {
		cfg.Reasoning.APIKeyEnv = yamlCfg.Reasoning.APIKeyEnv
	}
	if yamlCfg.Reasoning.Temperature != nil {
		cfg.Reasoning.Temperature = *yamlCfg.Reasoning.Temperature
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from <dir>/.mcp-agent/config.yaml.
// If the directory or file doesn't exist, returns default configuration
// without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".mcp-agent", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration. Non-nil flag
// values override configuration values, so flags take precedence over the
// config file.
func (c *Config) MergeWithFlags(stateDir *string, logLevel *string, maxRetries *int, model *string) {
	if stateDir != nil {
		c.StateDir = *stateDir
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if maxRetries != nil {
		c.MaxRetries = *maxRetries
	}
	if model != nil {
		c.Reasoning.Model = *model
	}
}

// HistoryDB returns the absolute path of the history database, resolving a
// relative HistoryDBPath against StateDir.
func (c *Config) HistoryDB() string {
	if filepath.IsAbs(c.HistoryDBPath) {
		return c.HistoryDBPath
	}
	return filepath.Join(c.StateDir, c.HistoryDBPath)
}

// LogDir returns the directory run logs are written to.
func (c *Config) LogDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return &models.ConfigurationError{Field: "state_dir", Reason: "cannot be empty"}
	}

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return &models.ConfigurationError{
			Field:  "log_level",
			Reason: fmt.Sprintf("invalid level %q, must be one of: trace, debug, info, warn, error", c.LogLevel),
		}
	}

	if c.MaxRetries < 0 {
		return &models.ConfigurationError{Field: "max_retries", Reason: fmt.Sprintf("must be >= 0, got %d", c.MaxRetries)}
	}
	if c.RetryInterval < 0 {
		return &models.ConfigurationError{Field: "retry_interval", Reason: fmt.Sprintf("must be >= 0, got %v", c.RetryInterval)}
	}
	if c.MaxClarificationAttempts <= 0 {
		return &models.ConfigurationError{
			Field:  "max_clarification_attempts",
			Reason: fmt.Sprintf("must be > 0, got %d", c.MaxClarificationAttempts),
		}
	}
	if c.ContextWindow <= 0 {
		return &models.ConfigurationError{Field: "context_window", Reason: fmt.Sprintf("must be > 0, got %d", c.ContextWindow)}
	}
	if c.HistoryEnabled && c.HistoryDBPath == "" {
		return &models.ConfigurationError{Field: "history_db_path", Reason: "cannot be empty when history is enabled"}
	}
	if c.Reasoning.Model == "" {
		return &models.ConfigurationError{Field: "reasoning.model", Reason: "cannot be empty"}
	}
	if c.Reasoning.Temperature < 0 || c.Reasoning.Temperature > 2 {
		return &models.ConfigurationError{
			Field:  "reasoning.temperature",
			Reason: fmt.Sprintf("must be in [0, 2], got %v", c.Reasoning.Temperature),
		}
	}

	return nil
}
