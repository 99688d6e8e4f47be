// Package reasoning defines the contract with the language-model
// collaborator and its OpenAI-backed implementation.
//
// The collaborator answers four questions for the engine: what kind of
// request is this (ClassifyIntent), which tool calls carry it out
// (PlanTasks), did a tool call actually succeed (JudgeResult), and what do
// the accumulated results mean (Interpret). The engine owns all state; the
// collaborator is advisory and stateless.
package reasoning

import (
	"context"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

// IntentResult is the outcome of classifying a user request.
type IntentResult struct {
	// Intent is the triage verdict.
	Intent models.Intent `json:"intent"`
	// Reply is the direct answer when Intent is NoAction.
	Reply string `json:"reply,omitempty"`
	// Question is what to ask when Intent is NeedsClarification.
	Question string `json:"question,omitempty"`
}

// Judgment is the verdict on one tool invocation outcome.
type Judgment struct {
	// Success means the raw result satisfies the task.
	Success bool `json:"success"`
	// NeedsRetry means a retry with CorrectedParams may succeed.
	NeedsRetry bool `json:"needs_retry"`
	// CorrectedParams replaces the task parameters on retry, when given.
	CorrectedParams map[string]any `json:"corrected_params,omitempty"`
	// NeedsUserValue means no retry can succeed without a concrete value
	// from the user. Parameter names the parameter to ask about.
	NeedsUserValue bool   `json:"needs_user_value"`
	Parameter      string `json:"parameter,omitempty"`
	// Summary is a one-line description of the outcome.
	Summary string `json:"summary,omitempty"`
}

// PriorFailure summarizes an earlier failed invocation of the same tool,
// shown to the judge so it does not propose corrections that already
// failed.
type PriorFailure struct {
	Params map[string]any
	Error  string
	Class  models.Classification
}

// Collaborator is the reasoning contract. Implementations must be safe for
// serial reuse; every call is independent.
type Collaborator interface {
	// ClassifyIntent triages a request against recent conversation.
	ClassifyIntent(ctx context.Context, query string, recent []models.Entry) (IntentResult, error)

	// PlanTasks turns a request into an ordered tool-call plan. The
	// catalog describes callable tools.
	PlanTasks(ctx context.Context, query string, recent []models.Entry, catalog string) (models.Plan, error)

	// JudgeResult decides whether a raw tool result satisfies the task,
	// given recent execution context and earlier failures of the same
	// tool. A malformed model response is an error; the caller treats it
	// as fatal.
	JudgeResult(ctx context.Context, task *models.Task, raw string, execCtx models.ExecutionContext, failures []PriorFailure) (Judgment, error)

	// Interpret condenses the execution context into the final answer for
	// the original request.
	Interpret(ctx context.Context, query string, execCtx models.ExecutionContext) (string, error)
}
