package models

// ContextEntry is one completed task's contribution to the execution
// context: the tool that ran, what it was for, and its concrete result.
type ContextEntry struct {
	TaskID      int    `json:"task_id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	Result      string `json:"result"`
}

// ExecutionContext is the append-only, strictly time-ordered history of
// completed task results in a session. Later tasks resolve parameter
// references against it; the classifier consults it when diagnosing
// failures. Entries are never mutated retroactively.
type ExecutionContext []ContextEntry

// Tail returns the most recent n entries (all entries if n is zero or
// exceeds the length).
func (c ExecutionContext) Tail(n int) ExecutionContext {
	if n <= 0 || len(c) <= n {
		return c
	}
	return c[len(c)-n:]
}

// ByTaskID looks up the entry for a given task id.
func (c ExecutionContext) ByTaskID(id int) (ContextEntry, bool) {
	for _, e := range c {
		if e.TaskID == id {
			return e, true
		}
	}
	return ContextEntry{}, false
}

// Last returns the most recent entry, if any.
func (c ExecutionContext) Last() (ContextEntry, bool) {
	if len(c) == 0 {
		return ContextEntry{}, false
	}
	return c[len(c)-1], true
}
