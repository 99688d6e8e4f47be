package models

import (
	"fmt"
	"time"
)

// TaskStatus tracks a task through the execution state machine:
// Pending -> Executing -> {Completed | AwaitingClarification | RetryPending | Failed}.
type TaskStatus string

const (
	TaskPending               TaskStatus = "pending"
	TaskExecuting             TaskStatus = "executing"
	TaskAwaitingClarification TaskStatus = "awaiting_clarification"
	TaskRetryPending          TaskStatus = "retry_pending"
	TaskCompleted             TaskStatus = "completed"
	TaskFailed                TaskStatus = "failed"
)

// Task represents one planned tool invocation within a session.
type Task struct {
	ID            int                   `json:"id"`             // Unique within session, assigned monotonically
	Description   string                `json:"description"`    // Human-readable description from the plan
	Tool          string                `json:"tool"`           // Tool name to invoke
	Params        map[string]any        `json:"params"`         // May contain unresolved references to prior results
	Status        TaskStatus            `json:"status"`         // Current state machine position
	Attempts      int                   `json:"attempts"`       // Invocation attempts so far
	Result        string                `json:"result,omitempty"`
	Error         string                `json:"error,omitempty"`
	Clarification *ClarificationRequest `json:"clarification,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// IsTerminal returns true once the task can no longer execute.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskFailed
}

// Ready returns true if the task may be picked up by the executor:
// it must be pending and carry no unresolved clarification.
func (t *Task) Ready() bool {
	if t.Status != TaskPending {
		return false
	}
	return t.Clarification == nil || t.Clarification.State != ClarificationAwaitingAnswer
}

// Touch updates the modification timestamp.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// PlanStep is one entry of a generated plan: a tool invocation with
// parameters and a description, in execution order.
type PlanStep struct {
	Tool        string         `json:"tool"`
	Params      map[string]any `json:"params"`
	Description string         `json:"description"`
}

// Plan is an ordered list of tool invocations produced by the planner.
type Plan []PlanStep

// Validate checks every step for the fields the executor depends on.
// A malformed step is rejected rather than silently skipped.
func (p Plan) Validate() error {
	for i, step := range p {
		if step.Tool == "" {
			return &PlanValidationError{Index: i, Reason: "missing tool name"}
		}
		if step.Params == nil {
			return &PlanValidationError{Index: i, Reason: fmt.Sprintf("missing parameters for tool %q", step.Tool)}
		}
	}
	return nil
}
