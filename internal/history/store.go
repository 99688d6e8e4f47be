// Package history keeps a durable SQLite record of every task execution.
// History is advisory: failures to record are logged and never fail the
// task that produced them.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Execution is one recorded task invocation outcome.
type Execution struct {
	ID           int64
	SessionID    string
	TaskID       int
	Tool         string
	Params       map[string]any
	Description  string
	Success      bool
	Result       string
	ErrorMessage string
	ErrorClass   models.Classification
	Attempts     int
	Duration     time.Duration
	CreatedAt    time.Time
}

// Stats aggregates a session's executions.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	ByTool    map[string]int
	AvgMs     int64
}

// Store manages the SQLite execution-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath.
// ":memory:" is supported for tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so later statements wait on locks instead of
	// failing.
	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record inserts one execution row.
func (s *Store) Record(ctx context.Context, exec *Execution) error {
	paramsJSON := "{}"
	if len(exec.Params) > 0 {
		data, err := json.Marshal(exec.Params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		paramsJSON = string(data)
	}

	query := `INSERT INTO task_executions
		(session_id, task_id, tool, params_json, description, success, result, error_message, error_class, attempts, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		exec.SessionID,
		exec.TaskID,
		exec.Tool,
		paramsJSON,
		exec.Description,
		exec.Success,
		exec.Result,
		exec.ErrorMessage,
		string(exec.ErrorClass),
		exec.Attempts,
		exec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert task execution: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		exec.ID = id
	}
	return nil
}

// SessionStats aggregates the executions of one session. An empty id
// aggregates across all sessions.
func (s *Store) SessionStats(ctx context.Context, sessionID string) (*Stats, error) {
	query := `SELECT tool, success, duration_ms FROM task_executions`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByTool: make(map[string]int)}
	var totalMs int64
	for rows.Next() {
		var tool string
		var success bool
		var durationMs int64
		if err := rows.Scan(&tool, &success, &durationMs); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		stats.Total++
		if success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		stats.ByTool[tool]++
		totalMs += durationMs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	if stats.Total > 0 {
		stats.AvgMs = totalMs / int64(stats.Total)
	}
	return stats, nil
}

// RecentFailures returns the most recent failed executions of a tool,
// newest first. The judge prompt is enriched with these so repeated
// mistakes inform the verdict.
func (s *Store) RecentFailures(ctx context.Context, tool string, limit int) ([]*Execution, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `SELECT id, session_id, task_id, tool, params_json, description, success, result, error_message, error_class, attempts, duration_ms, created_at
		FROM task_executions
		WHERE tool = ? AND success = 0
		ORDER BY id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, tool, limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var executions []*Execution
	for rows.Next() {
		exec := &Execution{}
		var paramsJSON, errorClass string
		var durationMs int64
		if err := rows.Scan(
			&exec.ID,
			&exec.SessionID,
			&exec.TaskID,
			&exec.Tool,
			&paramsJSON,
			&exec.Description,
			&exec.Success,
			&exec.Result,
			&exec.ErrorMessage,
			&errorClass,
			&exec.Attempts,
			&durationMs,
			&exec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		exec.ErrorClass = models.Classification(errorClass)
		exec.Duration = time.Duration(durationMs) * time.Millisecond
		if paramsJSON != "" && paramsJSON != "{}" {
			_ = json.Unmarshal([]byte(paramsJSON), &exec.Params)
		}
		executions = append(executions, exec)
	}
	return executions, rows.Err()
}

// Clear deletes all execution rows.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_executions`); err != nil {
		return fmt.Errorf("clear executions: %w", err)
	}
	return nil
}
