package reasoning

import (
	"context"
	"strings"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

// Stub is a deterministic Collaborator for tests. Each method can be
// overridden with a function field; unset methods fall back to simple
// deterministic behavior: every request needs tools, plans are empty,
// a non-empty error-free result is a success, and interpretation echoes
// the last result.
type Stub struct {
	ClassifyIntentFn func(query string, recent []models.Entry) (IntentResult, error)
	PlanTasksFn      func(query string, recent []models.Entry, catalog string) (models.Plan, error)
	JudgeResultFn    func(task *models.Task, raw string, execCtx models.ExecutionContext, failures []PriorFailure) (Judgment, error)
	InterpretFn      func(query string, execCtx models.ExecutionContext) (string, error)

	// Calls records method names in invocation order.
	Calls []string
}

var _ Collaborator = (*Stub)(nil)

func (s *Stub) ClassifyIntent(ctx context.Context, query string, recent []models.Entry) (IntentResult, error) {
	s.Calls = append(s.Calls, "ClassifyIntent")
	if s.ClassifyIntentFn != nil {
		return s.ClassifyIntentFn(query, recent)
	}
	return IntentResult{Intent: models.IntentNeedsTool}, nil
}

func (s *Stub) PlanTasks(ctx context.Context, query string, recent []models.Entry, catalog string) (models.Plan, error) {
	s.Calls = append(s.Calls, "PlanTasks")
	if s.PlanTasksFn != nil {
		return s.PlanTasksFn(query, recent, catalog)
	}
	return models.Plan{}, nil
}

func (s *Stub) JudgeResult(ctx context.Context, task *models.Task, raw string, execCtx models.ExecutionContext, failures []PriorFailure) (Judgment, error) {
	s.Calls = append(s.Calls, "JudgeResult")
	if s.JudgeResultFn != nil {
		return s.JudgeResultFn(task, raw, execCtx, failures)
	}
	ok := strings.TrimSpace(raw) != "" && !strings.Contains(strings.ToLower(raw), "error")
	return Judgment{Success: ok, Summary: raw}, nil
}

func (s *Stub) Interpret(ctx context.Context, query string, execCtx models.ExecutionContext) (string, error) {
	s.Calls = append(s.Calls, "Interpret")
	if s.InterpretFn != nil {
		return s.InterpretFn(query, execCtx)
	}
	if last, ok := execCtx.Last(); ok {
		return last.Result, nil
	}
	return "", nil
}
