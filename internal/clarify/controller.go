// Package clarify runs the question-and-answer loop for tasks whose
// parameters the planner could not pin down.
package clarify

import (
	"fmt"
	"strings"

	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/task"
)

// SkipDefault marks a parameter the user declined to specify. The executor
// substitutes a sensible default derived from prior context when it sees
// this value.
const SkipDefault = "__derive_default__"

// Controller mediates clarification requests between the task queue and
// the interactive surface. Attempts are bounded; a request that exhausts
// the budget is abandoned and its task fails.
type Controller struct {
	maxAttempts int
	pred        task.Predicate
	log         logger.Logger
}

// NewController creates a Controller with the given attempt budget.
func NewController(maxAttempts int, pred task.Predicate, log logger.Logger) *Controller {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if pred == nil {
		pred = task.NewHeuristic()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Controller{maxAttempts: maxAttempts, pred: pred, log: log}
}

// Ask renders the question block shown to the user for the task's open
// clarification request.
func (c *Controller) Ask(t *models.Task) (string, error) {
	req := t.Clarification
	if req == nil || req.State != models.ClarificationAwaitingAnswer {
		return "", fmt.Errorf("task %d has no open clarification", t.ID)
	}

	var b strings.Builder
	b.WriteString("### Clarification needed\n\n")
	b.WriteString(req.Question)
	b.WriteString("\n")
	if t.Description != "" {
		fmt.Fprintf(&b, "\nContext: %s\n", t.Description)
	}
	if len(req.Examples) > 0 {
		b.WriteString("\nExamples:\n")
		for _, example := range req.Examples {
			fmt.Fprintf(&b, "- %s\n", example)
		}
	}
	b.WriteString("\n(Type 'skip' to let the agent pick a sensible default.)")
	return b.String(), nil
}

// Outcome reports what Resolve did with an answer.
type Outcome int

const (
	// Resolved: the parameter was filled in and the task is pending again.
	Resolved Outcome = iota
	// Reask: the answer was unusable but budget remains; ask again.
	Reask
	// Abandoned: the budget is spent; the request is closed and the task
	// must be failed by the caller.
	Abandoned
)

// Resolve applies the user's answer to the task's open clarification.
// A usable answer substitutes the value into the parameter set, marks the
// request Resolved, and returns the task to Pending. "skip" resolves with
// the default-derivation marker. An unusable answer consumes one attempt;
// once the budget is spent the request is Abandoned and the returned error
// is a ClarificationExhaustedError.
func (c *Controller) Resolve(t *models.Task, answer string) (Outcome, error) {
	req := t.Clarification
	if req == nil || req.State != models.ClarificationAwaitingAnswer {
		return Reask, fmt.Errorf("task %d has no open clarification", t.ID)
	}

	req.Attempts++
	trimmed := strings.TrimSpace(answer)

	if strings.EqualFold(trimmed, "skip") {
		t.Params[req.Parameter] = SkipDefault
		req.State = models.ClarificationResolved
		t.Status = models.TaskPending
		t.Touch()
		c.log.LogDebug(fmt.Sprintf("task %d clarification skipped, deriving default for %q", t.ID, req.Parameter))
		return Resolved, nil
	}

	// The answer itself must be concrete; re-asking with "my age" again
	// gets us nowhere.
	usable := trimmed != "" && !c.pred.Classify(req.Parameter, trimmed, "").Ambiguous
	if !usable {
		if req.Attempts >= c.maxAttempts {
			req.State = models.ClarificationAbandoned
			t.Status = models.TaskFailed
			exhausted := &models.ClarificationExhaustedError{TaskID: t.ID, Attempts: req.Attempts}
			t.Error = exhausted.Error()
			t.Touch()
			c.log.LogWarn(fmt.Sprintf("task %d clarification abandoned after %d attempts", t.ID, req.Attempts))
			return Abandoned, exhausted
		}
		t.Touch()
		return Reask, nil
	}

	t.Params[req.Parameter] = trimmed
	req.State = models.ClarificationResolved
	t.Status = models.TaskPending
	t.Touch()
	c.log.LogDebug(fmt.Sprintf("task %d parameter %q resolved", t.ID, req.Parameter))
	return Resolved, nil
}

// Abandon closes the request without an answer and fails the task. Used
// when the user walks away from a clarification explicitly.
func (c *Controller) Abandon(t *models.Task) error {
	req := t.Clarification
	if req == nil || req.State != models.ClarificationAwaitingAnswer {
		return fmt.Errorf("task %d has no open clarification", t.ID)
	}
	req.State = models.ClarificationAbandoned
	t.Status = models.TaskFailed
	exhausted := &models.ClarificationExhaustedError{TaskID: t.ID, Attempts: req.Attempts}
	t.Error = exhausted.Error()
	t.Touch()
	return nil
}
