package models

import "time"

// SessionStatus describes the lifecycle of a session record.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionArchived  SessionStatus = "archived"
)

// Entry is one line of the conversation transcript.
type Entry struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a persisted unit of conversation plus task state, owned
// exclusively by one running engine instance.
type Session struct {
	ID           string        `json:"session_id"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Query        string        `json:"current_query"` // Most recent user request being worked on
	Intent       Intent        `json:"intent,omitempty"`
	Conversation []Entry       `json:"conversation"`
	Pending      []*Task       `json:"pending_tasks"`
	Completed    []*Task       `json:"completed_tasks"`
	NextTaskID   int           `json:"next_task_id"` // Monotonic task id counter
}

// HasPendingWork reports whether any task remains in the pending partition.
func (s *Session) HasPendingWork() bool {
	return len(s.Pending) > 0
}

// PendingClarification returns the first task suspended on an unresolved
// clarification request, or nil.
func (s *Session) PendingClarification() *Task {
	for _, t := range s.Pending {
		if t.Status == TaskAwaitingClarification && t.Clarification != nil &&
			t.Clarification.State == ClarificationAwaitingAnswer {
			return t
		}
	}
	return nil
}

// RecentConversation returns up to n of the most recent transcript entries.
func (s *Session) RecentConversation(n int) []Entry {
	if n <= 0 || len(s.Conversation) <= n {
		return s.Conversation
	}
	return s.Conversation[len(s.Conversation)-n:]
}

// Context assembles the execution context from completed tasks, strictly in
// completion order. Failed tasks contribute nothing; their error detail lives
// on the task record itself.
func (s *Session) Context() ExecutionContext {
	ctx := make(ExecutionContext, 0, len(s.Completed))
	for _, t := range s.Completed {
		if t.Status != TaskCompleted {
			continue
		}
		ctx = append(ctx, ContextEntry{
			TaskID:      t.ID,
			Tool:        t.Tool,
			Description: t.Description,
			Result:      t.Result,
		})
	}
	return ctx
}

// Touch updates the modification timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
