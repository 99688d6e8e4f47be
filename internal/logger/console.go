package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs execution progress to a writer with timestamps and
// thread safety. All output is prefixed with [HH:MM:SS] timestamps. It
// supports log level filtering, and color output is automatically enabled
// for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided
// io.Writer. If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); empty
// or invalid levels default to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// color's TTY detection also honors NO_COLOR.
		return !color.NoColor
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates
// it, returning "info" for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorizeLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	cl.writer.Write([]byte(formatted))
}

func colorizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// LogTaskStart logs the start of a task execution at INFO level.
// Format: "[HH:MM:SS] Task <id>: <description> (<tool>)"
func (cl *ConsoleLogger) LogTaskStart(task *models.Task) {
	if cl.writer == nil || task == nil {
		return
	}
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var message string
	if cl.colorOutput {
		label := color.New(color.Bold).Sprintf("Task %d", task.ID)
		message = fmt.Sprintf("[%s] %s: %s (%s)\n", ts, label, task.Description, task.Tool)
	} else {
		message = fmt.Sprintf("[%s] Task %d: %s (%s)\n", ts, task.ID, task.Description, task.Tool)
	}
	cl.writer.Write([]byte(message))
}

// LogTaskResult logs the outcome of a task attempt at DEBUG level.
// Format: "[HH:MM:SS] Task <id> attempt <n>: <classification>"
func (cl *ConsoleLogger) LogTaskResult(task *models.Task, classification models.Classification) {
	if cl.writer == nil || task == nil {
		return
	}
	if !cl.shouldLog("debug") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var outcome string
	if cl.colorOutput {
		switch classification {
		case models.ClassSuccess:
			outcome = color.New(color.FgGreen).Sprint(string(classification))
		case models.ClassTransientError, models.ClassParameterError:
			outcome = color.New(color.FgYellow).Sprint(string(classification))
		case models.ClassFatal:
			outcome = color.New(color.FgRed).Sprint(string(classification))
		case models.ClassAmbiguous:
			outcome = color.New(color.FgCyan).Sprint(string(classification))
		default:
			outcome = string(classification)
		}
	} else {
		outcome = string(classification)
	}
	message := fmt.Sprintf("[%s] Task %d attempt %d: %s\n", ts, task.ID, task.Attempts, outcome)
	cl.writer.Write([]byte(message))
}

// LogSessionSummary logs completion statistics for a run at INFO level.
func (cl *ConsoleLogger) LogSessionSummary(session *models.Session, duration time.Duration) {
	if cl.writer == nil || session == nil {
		return
	}
	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	completed := 0
	failed := 0
	for _, task := range session.Completed {
		if task.Status == models.TaskFailed {
			failed++
		} else {
			completed++
		}
	}

	var output string
	if cl.colorOutput {
		header := color.New(color.Bold).Sprint("=== Session Summary ===")
		output = fmt.Sprintf("[%s] %s\n", ts, header)
		output += fmt.Sprintf("[%s] Session: %s\n", ts, session.ID)
		output += fmt.Sprintf("[%s] %s\n", ts, color.New(color.FgGreen).Sprintf("Completed: %d", completed))
		if failed > 0 {
			output += fmt.Sprintf("[%s] %s\n", ts, color.New(color.FgRed).Sprintf("Failed: %d", failed))
		} else {
			output += fmt.Sprintf("[%s] Failed: %d\n", ts, failed)
		}
		output += fmt.Sprintf("[%s] Pending: %d\n", ts, len(session.Pending))
		output += fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(duration))
	} else {
		output = fmt.Sprintf("[%s] === Session Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Session: %s\n", ts, session.ID)
		output += fmt.Sprintf("[%s] Completed: %d\n", ts, completed)
		output += fmt.Sprintf("[%s] Failed: %d\n", ts, failed)
		output += fmt.Sprintf("[%s] Pending: %d\n", ts, len(session.Pending))
		output += fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(duration))
	}
	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, remainder/time.Second)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, remainder/time.Second)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}
