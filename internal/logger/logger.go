// Package logger provides logging for agent execution.
//
// The package offers leveled logging of execution progress at the task and
// session levels. Implementations are thread-safe and support console and
// file destinations.
package logger

import (
	"time"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

// Logger is the logging interface used across the engine, executor, and
// state store.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	// LogTaskStart logs the start of a single task execution.
	LogTaskStart(task *models.Task)
	// LogTaskResult logs the outcome of a task attempt with its
	// classification.
	LogTaskResult(task *models.Task, classification models.Classification)
	// LogSessionSummary logs completion statistics when a run finishes.
	LogSessionSummary(session *models.Session, duration time.Duration)
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string) {}
func (n *NoOpLogger) LogDebug(message string) {}
func (n *NoOpLogger) LogInfo(message string)  {}
func (n *NoOpLogger) LogWarn(message string)  {}
func (n *NoOpLogger) LogError(message string) {}

func (n *NoOpLogger) LogTaskStart(task *models.Task) {}

func (n *NoOpLogger) LogTaskResult(task *models.Task, classification models.Classification) {}

func (n *NoOpLogger) LogSessionSummary(session *models.Session, duration time.Duration) {}
