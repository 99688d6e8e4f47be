// Package classify decides what a tool invocation outcome means and what
// to do about it.
package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gamasenninn/mcp-agent/internal/history"
	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/reasoning"
)

// parameterIndicators mark failures attributable to an argument value.
var parameterIndicators = []string{
	"404",
	"not found",
	"invalid parameter",
	"invalid argument",
	"400",
	"no such column",
	"no such table",
	"syntax error",
	"validation",
	"missing parameter",
	"division by zero",
	"is not a number",
	"no such tool",
	"unsupported type",
}

// transientIndicators mark retryable failures unrelated to parameters.
var transientIndicators = []string{
	"timeout",
	"timed out",
	"connection",
	"network",
	"503",
	"500",
	"502",
	"504",
	"temporary",
	"temporarily",
	"unavailable",
	"context canceled",
	"deadline exceeded",
}

// Classifier assigns a Classification to each invocation outcome. Cheap
// heuristics place invocation errors; results that arrived without an
// error go to the reasoning collaborator's judge. A judge that cannot be
// understood is fatal, because the classifier never guesses success.
type Classifier struct {
	collab reasoning.Collaborator
	hist   *history.Store
	window int
	log    logger.Logger
}

// recentFailureLimit caps how many prior failed attempts of the same tool
// are shown to the judge.
const recentFailureLimit = 3

// NewClassifier creates a Classifier consulting the given collaborator.
// hist may be nil; when set, recent failures of the task's tool are fed
// to the judge. window bounds the execution-context entries shown to it.
func NewClassifier(collab reasoning.Collaborator, hist *history.Store, window int, log logger.Logger) *Classifier {
	if window <= 0 {
		window = 5
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Classifier{collab: collab, hist: hist, window: window, log: log}
}

// Classify inspects one invocation outcome. The returned judgment carries
// corrected parameters when the judge proposed any; it is zero-valued for
// heuristic classifications.
func (c *Classifier) Classify(ctx context.Context, task *models.Task, raw string, invErr error, execCtx models.ExecutionContext) (models.Classification, reasoning.Judgment) {
	if invErr != nil {
		return c.classifyError(task, invErr), reasoning.Judgment{}
	}

	// An empty result is never a success, whatever the judge might say.
	if strings.TrimSpace(raw) == "" {
		c.log.LogDebug(fmt.Sprintf("task %d returned empty result", task.ID))
		return models.ClassParameterError, reasoning.Judgment{}
	}
	judgment, err := c.collab.JudgeResult(ctx, task, raw, execCtx.Tail(c.window), c.priorFailures(ctx, task.Tool))
	if err != nil {
		c.log.LogWarn(fmt.Sprintf("task %d judge unusable: %v", task.ID, err))
		return models.ClassFatal, reasoning.Judgment{Summary: fmt.Sprintf("judge response unusable: %v", err)}
	}
	switch {
	case judgment.Success:
		return models.ClassSuccess, judgment
	case judgment.NeedsUserValue:
		return models.ClassAmbiguous, judgment
	case judgment.NeedsRetry:
		return models.ClassParameterError, judgment
	default:
		return models.ClassFatal, judgment
	}
}

// priorFailures loads recent failed attempts of a tool for the judge.
// A missing or failing history store degrades to no enrichment.
func (c *Classifier) priorFailures(ctx context.Context, tool string) []reasoning.PriorFailure {
	if c.hist == nil {
		return nil
	}
	execs, err := c.hist.RecentFailures(ctx, tool, recentFailureLimit)
	if err != nil {
		c.log.LogWarn(fmt.Sprintf("recent failures for %q unavailable: %v", tool, err))
		return nil
	}
	failures := make([]reasoning.PriorFailure, 0, len(execs))
	for _, e := range execs {
		failures = append(failures, reasoning.PriorFailure{
			Params: e.Params,
			Error:  e.ErrorMessage,
			Class:  e.ErrorClass,
		})
	}
	return failures
}

// classifyError places an invocation error by its message, falling back to
// the typed kind the invoker reported.
func (c *Classifier) classifyError(task *models.Task, invErr error) models.Classification {
	if class, matched := matchIndicators(invErr.Error()); matched {
		return class
	}

	var typed *models.InvocationError
	if errors.As(invErr, &typed) {
		switch typed.Kind {
		case models.InvocationParameter:
			return models.ClassParameterError
		case models.InvocationTransient:
			return models.ClassTransientError
		}
	}
	c.log.LogDebug(fmt.Sprintf("task %d error unmatched, treating as fatal: %v", task.ID, invErr))
	return models.ClassFatal
}

// matchIndicators is the shared heuristic table. Parameter indicators win
// over transient ones when both appear; a wrong argument that also timed
// out still needs a correction, not a blind retry.
func matchIndicators(text string) (models.Classification, bool) {
	lower := strings.ToLower(text)
	for _, indicator := range parameterIndicators {
		if strings.Contains(lower, indicator) {
			return models.ClassParameterError, true
		}
	}
	for _, indicator := range transientIndicators {
		if strings.Contains(lower, indicator) {
			return models.ClassTransientError, true
		}
	}
	return models.ClassFatal, false
}
