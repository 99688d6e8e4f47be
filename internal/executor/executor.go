// Package executor drives the serial task loop: pick the next ready task,
// resolve parameter references against prior results, invoke the tool,
// classify the outcome, and act on it. The engine in this package layers
// the per-turn conversation protocol on top.
package executor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gamasenninn/mcp-agent/internal/clarify"
	"github.com/gamasenninn/mcp-agent/internal/classify"
	"github.com/gamasenninn/mcp-agent/internal/history"
	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/reasoning"
	"github.com/gamasenninn/mcp-agent/internal/state"
	"github.com/gamasenninn/mcp-agent/internal/task"
	"github.com/gamasenninn/mcp-agent/internal/tools"
)

// referencePattern matches {{task_N.result}} and {{prev.result}} wherever
// they appear inside a string parameter.
var referencePattern = regexp.MustCompile(`\{\{(task_(\d+)|prev)\.result\}\}`)

// Executor runs the pending queue of a session to quiescence. Tasks run
// strictly one at a time; the interrupt flag is polled between steps so a
// pause never lands mid-invocation.
type Executor struct {
	store      *state.Store
	invoker    tools.Invoker
	classifier *classify.Classifier
	retry      *classify.RetryController
	collab     reasoning.Collaborator
	history    *history.Store
	interrupt  *Interrupt
	log        logger.Logger

	running atomic.Bool
}

// NewExecutor wires an Executor. store and hist may be nil (no persistence,
// no execution history); everything else is required.
func NewExecutor(store *state.Store, invoker tools.Invoker, classifier *classify.Classifier, retry *classify.RetryController, collab reasoning.Collaborator, hist *history.Store, interrupt *Interrupt, log logger.Logger) *Executor {
	if interrupt == nil {
		interrupt = NewInterrupt()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Executor{
		store:      store,
		invoker:    invoker,
		classifier: classifier,
		retry:      retry,
		collab:     collab,
		history:    hist,
		interrupt:  interrupt,
		log:        log,
	}
}

// Interruptor exposes the pause flag so interactive surfaces can request a
// suspension.
func (e *Executor) Interruptor() *Interrupt {
	return e.interrupt
}

// Result is the outcome of one drain attempt over the pending queue.
type Result struct {
	// Drained is true when no runnable work remains and Answer holds the
	// interpreted outcome.
	Drained bool
	// Answer is the final answer for the session's current query.
	Answer string
	// Awaiting is the task suspended on a clarification, when the run
	// stopped to ask the user something.
	Awaiting *models.Task
	// Interrupted is true when the run paused cooperatively.
	Interrupted bool
}

// RunPending executes ready tasks in order until the queue drains, a
// clarification is needed, or an interrupt lands. Exactly one task is
// executing at any instant; a concurrent call is rejected outright. State
// is snapshotted after every transition so a crash resumes cleanly.
func (e *Executor) RunPending(ctx context.Context, sess *models.Session, mgr *task.Manager) (Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return Result{}, errors.New("a task run is already in progress")
	}
	defer e.running.Store(false)

	for {
		if e.interrupt.Pending() || ctx.Err() != nil {
			return e.suspend(sess)
		}

		t := mgr.NextReady()
		if t == nil {
			if awaiting := sess.PendingClarification(); awaiting != nil {
				if err := e.snapshot(sess); err != nil {
					return Result{}, err
				}
				return Result{Awaiting: awaiting}, nil
			}
			return e.finish(ctx, sess)
		}

		params, unresolved := resolveParams(t.Params, sess.Context())
		if unresolved != "" {
			question := fmt.Sprintf("I don't have a value for %q yet. What should it be?", unresolved)
			if err := mgr.RequestClarification(t.ID, unresolved, question, nil); err != nil {
				return Result{}, err
			}
			if err := e.snapshot(sess); err != nil {
				return Result{}, err
			}
			continue
		}

		t.Status = models.TaskExecuting
		t.Attempts++
		t.Touch()
		if err := e.snapshot(sess); err != nil {
			return Result{}, err
		}
		e.log.LogTaskStart(t)

		started := time.Now()
		raw, invErr := e.invoker.Invoke(ctx, t.Tool, params)
		class, judgment := e.classifier.Classify(ctx, t, raw, invErr, sess.Context())
		e.log.LogTaskResult(t, class)
		e.record(ctx, sess, t, params, raw, invErr, class, time.Since(started))

		action, decideErr := e.retry.Decide(ctx, t, class, judgment)
		if decideErr != nil {
			// The context was cancelled during a retry wait. Leave the task
			// runnable and suspend.
			t.Status = models.TaskPending
			t.Touch()
			return e.suspend(sess)
		}

		switch action {
		case classify.Proceed:
			if err := mgr.Complete(t.ID, raw); err != nil {
				return Result{}, err
			}

		case classify.Retry:
			t.Status = models.TaskPending
			t.Touch()

		case classify.Escalate:
			question := judgment.Summary
			if question == "" {
				question = "This step needs a concrete value before it can run. What should it be?"
			}
			if err := mgr.RequestClarification(t.ID, escalatedParam(t, judgment), question, nil); err != nil {
				return Result{}, err
			}

		case classify.Stop:
			if err := mgr.Fail(t.ID, failureFor(t, raw, invErr, judgment)); err != nil {
				return Result{}, err
			}
		}

		if err := e.snapshot(sess); err != nil {
			return Result{}, err
		}
	}
}

// suspend parks the session so a later run resumes it.
func (e *Executor) suspend(sess *models.Session) (Result, error) {
	sess.Status = models.SessionPaused
	sess.Touch()
	if err := e.snapshot(sess); err != nil {
		return Result{}, err
	}
	e.log.LogInfo("execution paused, session state saved")
	return Result{Interrupted: true}, nil
}

// finish interprets the accumulated results into the final answer for the
// session's current query and marks the session completed. The next turn
// reactivates it.
func (e *Executor) finish(ctx context.Context, sess *models.Session) (Result, error) {
	answer, err := e.collab.Interpret(ctx, sess.Query, sess.Context())
	if err != nil {
		e.log.LogWarn(fmt.Sprintf("interpretation failed: %v", err))
		answer = fallbackAnswer(sess)
	}
	sess.Status = models.SessionCompleted
	sess.Touch()
	if err := e.snapshot(sess); err != nil {
		return Result{}, err
	}
	return Result{Drained: true, Answer: answer}, nil
}

// escalatedParam names the parameter an escalated clarification asks about.
// The judge's choice wins; otherwise the first parameter in name order.
func escalatedParam(t *models.Task, judgment reasoning.Judgment) string {
	if judgment.Parameter != "" {
		return judgment.Parameter
	}
	names := make([]string, 0, len(t.Params))
	for name := range t.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		return names[0]
	}
	return "value"
}

// fallbackAnswer stands in when interpretation is unavailable: the last
// concrete result, or a plain report that nothing completed.
func fallbackAnswer(sess *models.Session) string {
	if last, ok := sess.Context().Last(); ok && last.Result != "" {
		return last.Result
	}
	return "No results to report."
}

// failureFor picks the most specific failure description for a stopped task.
func failureFor(t *models.Task, raw string, invErr error, judgment reasoning.Judgment) error {
	switch {
	case invErr != nil:
		return invErr
	case judgment.Summary != "":
		return errors.New(judgment.Summary)
	case raw != "":
		return fmt.Errorf("tool %s returned an unusable result: %s", t.Tool, raw)
	default:
		return fmt.Errorf("tool %s returned nothing", t.Tool)
	}
}

func (e *Executor) snapshot(sess *models.Session) error {
	if e.store == nil {
		return nil
	}
	return e.store.Snapshot(sess)
}

// record writes the invocation outcome to the execution-history database.
// History is an observability aid; failures degrade to a warning.
func (e *Executor) record(ctx context.Context, sess *models.Session, t *models.Task, params map[string]any, raw string, invErr error, class models.Classification, elapsed time.Duration) {
	if e.history == nil {
		return
	}
	exec := &history.Execution{
		SessionID:   sess.ID,
		TaskID:      t.ID,
		Tool:        t.Tool,
		Params:      params,
		Description: t.Description,
		Success:     class == models.ClassSuccess,
		Result:      raw,
		ErrorClass:  class,
		Attempts:    t.Attempts,
		Duration:    elapsed,
	}
	if invErr != nil {
		exec.ErrorMessage = invErr.Error()
	}
	if err := e.history.Record(ctx, exec); err != nil {
		e.log.LogWarn(fmt.Sprintf("history record failed: %v", err))
	}
}

// resolveParams returns a copy of params with every result reference and
// skip marker replaced by a concrete value. The original map keeps its
// references so a retried task re-resolves against up-to-date context.
// A reference to a task that has not completed comes back as the unresolved
// parameter name.
func resolveParams(params map[string]any, execCtx models.ExecutionContext) (map[string]any, string) {
	resolved := make(map[string]any, len(params))
	for name, value := range params {
		s, isString := value.(string)
		if !isString {
			resolved[name] = value
			continue
		}

		if s == clarify.SkipDefault {
			resolved[name] = deriveDefault(execCtx)
			continue
		}

		failed := false
		substituted := referencePattern.ReplaceAllStringFunc(s, func(match string) string {
			entry, ok := lookupReference(match, execCtx)
			if !ok {
				failed = true
				return match
			}
			return entry.Result
		})
		if failed {
			return nil, name
		}
		resolved[name] = substituted
	}
	return resolved, ""
}

func lookupReference(ref string, execCtx models.ExecutionContext) (models.ContextEntry, bool) {
	groups := referencePattern.FindStringSubmatch(ref)
	if groups == nil {
		return models.ContextEntry{}, false
	}
	if groups[1] == "prev" {
		return execCtx.Last()
	}
	var id int
	if _, err := fmt.Sscanf(groups[2], "%d", &id); err != nil {
		return models.ContextEntry{}, false
	}
	return execCtx.ByTaskID(id)
}

// deriveDefault is what a skipped clarification resolves to: the most
// recent concrete result, else zero.
func deriveDefault(execCtx models.ExecutionContext) string {
	if last, ok := execCtx.Last(); ok && last.Result != "" {
		return last.Result
	}
	return "0"
}
