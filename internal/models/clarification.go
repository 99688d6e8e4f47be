package models

// ClarificationState tracks a clarification request through its lifecycle.
// AwaitingAnswer is the only non-terminal state: once Resolved or Abandoned
// a request never becomes answerable again; recurring ambiguity creates a
// fresh request.
type ClarificationState string

const (
	ClarificationAwaitingAnswer ClarificationState = "awaiting_answer"
	ClarificationResolved       ClarificationState = "resolved"
	ClarificationAbandoned      ClarificationState = "abandoned"
)

// ClarificationRequest captures a question the engine must ask the user
// before the owning task can execute.
type ClarificationRequest struct {
	TaskID    int                `json:"task_id"`
	Parameter string             `json:"parameter"` // Name of the ambiguous parameter
	Question  string             `json:"question"`
	Examples  []string           `json:"examples,omitempty"` // Example answers shown to the user
	Attempts  int                `json:"attempts"`
	State     ClarificationState `json:"state"`
}
