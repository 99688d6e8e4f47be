package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

// FileLogger logs engine events to files under the agent state directory.
// It creates timestamped per-run log files and maintains a latest.log
// symlink pointing to the most recent run. It is thread-safe and implements
// the Logger interface.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir with the given log
// level. It creates the directory if needed, opens a timestamped run log
// file, and creates/updates the latest.log symlink.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	// Timestamped filename: run-YYYYMMDD-HHMMSS.log
	ts := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", ts))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}
	fl.write(fmt.Sprintf("=== Agent Run Log ===\nStarted at: %s\n\n", time.Now().Format(time.RFC3339)))
	return fl, nil
}

// RunFile returns the path of the current run log file.
func (fl *FileLogger) RunFile() string { return fl.runFile }

// Close closes the underlying run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return nil
	}
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

func (fl *FileLogger) write(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return
	}
	fl.runLog.WriteString(message)
}

func (fl *FileLogger) logWithLevel(level, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

// LogTaskStart logs the start of a task execution at INFO level.
func (fl *FileLogger) LogTaskStart(task *models.Task) {
	if task == nil || !fl.shouldLog("info") {
		return
	}
	fl.write(fmt.Sprintf("[%s] Task %d: %s (%s)\n", timestamp(), task.ID, task.Description, task.Tool))
}

// LogTaskResult logs the outcome of a task attempt at DEBUG level.
func (fl *FileLogger) LogTaskResult(task *models.Task, classification models.Classification) {
	if task == nil || !fl.shouldLog("debug") {
		return
	}
	fl.write(fmt.Sprintf("[%s] Task %d attempt %d: %s\n", timestamp(), task.ID, task.Attempts, classification))
}

// LogSessionSummary logs completion statistics for a run at INFO level.
func (fl *FileLogger) LogSessionSummary(session *models.Session, duration time.Duration) {
	if session == nil || !fl.shouldLog("info") {
		return
	}
	completed := 0
	failed := 0
	for _, task := range session.Completed {
		if task.Status == models.TaskFailed {
			failed++
		} else {
			completed++
		}
	}
	ts := timestamp()
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] === Session Summary ===\n", ts)
	fmt.Fprintf(&b, "[%s] Session: %s\n", ts, session.ID)
	fmt.Fprintf(&b, "[%s] Completed: %d\n", ts, completed)
	fmt.Fprintf(&b, "[%s] Failed: %d\n", ts, failed)
	fmt.Fprintf(&b, "[%s] Pending: %d\n", ts, len(session.Pending))
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(duration))
	fl.write(b.String())
}

// Tee fans log calls out to multiple loggers. Used to log to console and the
// run log file at the same time.
type Tee struct {
	loggers []Logger
}

// NewTee creates a Tee over the given loggers. Nil entries are skipped.
func NewTee(loggers ...Logger) *Tee {
	out := make([]Logger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	return &Tee{loggers: out}
}

func (t *Tee) LogTrace(message string) {
	for _, l := range t.loggers {
		l.LogTrace(message)
	}
}

func (t *Tee) LogDebug(message string) {
	for _, l := range t.loggers {
		l.LogDebug(message)
	}
}

func (t *Tee) LogInfo(message string) {
	for _, l := range t.loggers {
		l.LogInfo(message)
	}
}

func (t *Tee) LogWarn(message string) {
	for _, l := range t.loggers {
		l.LogWarn(message)
	}
}

func (t *Tee) LogError(message string) {
	for _, l := range t.loggers {
		l.LogError(message)
	}
}

func (t *Tee) LogTaskStart(task *models.Task) {
	for _, l := range t.loggers {
		l.LogTaskStart(task)
	}
}

func (t *Tee) LogTaskResult(task *models.Task, classification models.Classification) {
	for _, l := range t.loggers {
		l.LogTaskResult(task, classification)
	}
}

func (t *Tee) LogSessionSummary(session *models.Session, duration time.Duration) {
	for _, l := range t.loggers {
		l.LogSessionSummary(session, duration)
	}
}
