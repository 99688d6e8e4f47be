package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/reasoning"
)

// Action is what the executor should do with a classified outcome.
type Action int

const (
	// Proceed: the task succeeded; record the result and move on.
	Proceed Action = iota
	// Retry: run the task again (parameters possibly corrected).
	Retry
	// Escalate: hand off to the user for clarification.
	Escalate
	// Stop: the task has failed for good.
	Stop
)

func (a Action) String() string {
	switch a {
	case Proceed:
		return "proceed"
	case Retry:
		return "retry"
	case Escalate:
		return "escalate"
	default:
		return "stop"
	}
}

// RetryController drives bounded remediation. Parameter errors retry with
// judge-proposed corrections; transient errors wait a fixed interval and
// retry with parameters unchanged; ambiguity escalates; anything fatal or
// out of budget stops.
type RetryController struct {
	maxRetries int
	interval   time.Duration
	log        logger.Logger

	// sleep is swappable so tests don't wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryController creates a controller with the given retry budget and
// wait interval.
func NewRetryController(maxRetries int, interval time.Duration, log logger.Logger) *RetryController {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &RetryController{
		maxRetries: maxRetries,
		interval:   interval,
		log:        log,
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Decide maps a classification to the next action for the task. The task's
// Attempts count (incremented by the executor per invocation) is measured
// against the retry budget: a task may be invoked at most 1+maxRetries
// times. Transient retries block on the wait interval; a cancelled context
// turns the retry into a stop.
func (r *RetryController) Decide(ctx context.Context, t *models.Task, class models.Classification, judgment reasoning.Judgment) (Action, error) {
	switch class {
	case models.ClassSuccess:
		return Proceed, nil

	case models.ClassAmbiguous:
		return Escalate, nil

	case models.ClassParameterError:
		if t.Attempts > r.maxRetries {
			r.log.LogDebug(fmt.Sprintf("task %d retry budget spent after %d attempts", t.ID, t.Attempts))
			return Stop, nil
		}
		if len(judgment.CorrectedParams) > 0 {
			for name, value := range judgment.CorrectedParams {
				t.Params[name] = value
			}
			r.log.LogDebug(fmt.Sprintf("task %d retrying with %d corrected parameters", t.ID, len(judgment.CorrectedParams)))
		}
		t.Status = models.TaskRetryPending
		t.Touch()
		return Retry, nil

	case models.ClassTransientError:
		if t.Attempts > r.maxRetries {
			r.log.LogDebug(fmt.Sprintf("task %d retry budget spent after %d attempts", t.ID, t.Attempts))
			return Stop, nil
		}
		t.Status = models.TaskRetryPending
		t.Touch()
		if err := r.sleep(ctx, r.interval); err != nil {
			return Stop, err
		}
		return Retry, nil

	default: // ClassFatal
		return Stop, nil
	}
}

// Budget reports the maximum number of invocations per task.
func (r *RetryController) Budget() int {
	return 1 + r.maxRetries
}
