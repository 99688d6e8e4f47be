package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/state"
)

func session(tasks ...*models.Task) *models.Session {
	sess := &models.Session{ID: "s1", Status: models.SessionActive}
	for _, t := range tasks {
		if t.IsTerminal() {
			sess.Completed = append(sess.Completed, t)
		} else {
			sess.Pending = append(sess.Pending, t)
		}
	}
	return sess
}

func TestChecklistMarks(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(&buf)

	r.Checklist(session(
		&models.Task{ID: 1, Description: "add 15 and 9", Status: models.TaskCompleted},
		&models.Task{ID: 2, Description: "double the sum", Status: models.TaskFailed, Error: "division by zero"},
		&models.Task{ID: 3, Description: "report the result", Status: models.TaskPending},
		&models.Task{ID: 4, Description: "needs a value", Status: models.TaskAwaitingClarification},
	))

	out := buf.String()
	for _, want := range []string{
		"✓ 1. add 15 and 9",
		"✗ 2. double the sum (division by zero)",
		"○ 3. report the result",
		"? 4. needs a value",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("checklist missing %q in:\n%s", want, out)
		}
	}
}

func TestChecklistEmptySession(t *testing.T) {
	var buf bytes.Buffer
	NewPlainRenderer(&buf).Checklist(&models.Session{})
	if !strings.Contains(buf.String(), "No tasks") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestAnswerSkipsEmptyText(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(&buf)

	r.Answer("  ")
	if buf.Len() != 0 {
		t.Errorf("blank answer produced output: %q", buf.String())
	}

	r.Answer("48")
	out := buf.String()
	if !strings.Contains(out, "Answer:") || !strings.Contains(out, "48") {
		t.Errorf("unexpected answer output: %q", out)
	}
}

func TestQuestionKeepsStructure(t *testing.T) {
	var buf bytes.Buffer
	NewPlainRenderer(&buf).Question("### Clarification needed\n\nWhat value for \"a\"?\n\nExamples:\n- 30")

	out := buf.String()
	if !strings.Contains(out, "### Clarification needed") {
		t.Errorf("heading lost: %q", out)
	}
	if !strings.Contains(out, "- 30") {
		t.Errorf("examples lost: %q", out)
	}
}

func TestSessionsTable(t *testing.T) {
	var buf bytes.Buffer
	updated := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	NewPlainRenderer(&buf).Sessions([]state.SessionInfo{
		{ID: "current-id", Status: models.SessionActive, UpdatedAt: updated, Pending: 2, Completed: 1, Current: true},
		{ID: "old-id", Status: models.SessionArchived, UpdatedAt: updated, Completed: 4},
	})

	out := buf.String()
	if !strings.Contains(out, "* current-id") {
		t.Errorf("current session not marked: %q", out)
	}
	if !strings.Contains(out, "archived") {
		t.Errorf("status column missing: %q", out)
	}
	if !strings.Contains(out, "2026-08-31 12:00:00") {
		t.Errorf("timestamp missing: %q", out)
	}
}

func TestSessionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPlainRenderer(&buf).Sessions(nil)
	if !strings.Contains(buf.String(), "No sessions.") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestWarningDisplay(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(&buf)
	Warning{
		Title:      "History database unavailable",
		Message:    "executions will not be recorded this run",
		Suggestion: "check the history.db_path setting",
	}.Display(r)

	out := buf.String()
	for _, want := range []string{"Warning: History database unavailable", "not be recorded", "Suggestion:"} {
		if !strings.Contains(out, want) {
			t.Errorf("warning missing %q in %q", want, out)
		}
	}
}

func TestPaused(t *testing.T) {
	var buf bytes.Buffer
	NewPlainRenderer(&buf).Paused("abc-123")
	if !strings.Contains(buf.String(), "--resume abc-123") {
		t.Errorf("resume hint missing: %q", buf.String())
	}
}
