package executor

import (
	"context"
	"strings"
	"time"

	"github.com/gamasenninn/mcp-agent/internal/clarify"
	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
	"github.com/gamasenninn/mcp-agent/internal/reasoning"
	"github.com/gamasenninn/mcp-agent/internal/state"
	"github.com/gamasenninn/mcp-agent/internal/task"
	"github.com/gamasenninn/mcp-agent/internal/tools"
)

// Engine runs the per-turn protocol over a session: record the user's
// entry, resolve any pending clarification, triage fresh input, plan and
// enqueue tool work, and drain the queue. One Engine owns one session's
// turn at a time.
type Engine struct {
	store     *state.Store
	collab    reasoning.Collaborator
	invoker   tools.Invoker
	exec      *Executor
	clarifier *clarify.Controller
	pred      task.Predicate
	window    int
	log       logger.Logger
}

// NewEngine wires an Engine. store may be nil for in-memory use; a nil
// predicate falls back to the default heuristic.
func NewEngine(store *state.Store, collab reasoning.Collaborator, invoker tools.Invoker, exec *Executor, clarifier *clarify.Controller, pred task.Predicate, window int, log logger.Logger) *Engine {
	if pred == nil {
		pred = task.NewHeuristic()
	}
	if window <= 0 {
		window = 10
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{
		store:     store,
		collab:    collab,
		invoker:   invoker,
		exec:      exec,
		clarifier: clarifier,
		pred:      pred,
		window:    window,
		log:       log,
	}
}

// Response is what one turn hands back to the interactive surface. At most
// one of Reply and Question is set; Interrupted means the turn paused
// mid-execution and the session can be resumed.
type Response struct {
	Reply       string
	Question    string
	Interrupted bool
}

// HandleInput runs one turn. When a clarification is outstanding the input
// is its answer; otherwise the input is triaged as a fresh request. Every
// state transition is persisted before control returns.
func (eng *Engine) HandleInput(ctx context.Context, sess *models.Session, input string) (Response, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Response{}, nil
	}

	sess.Status = models.SessionActive
	if err := eng.appendEntry(sess, "user", input); err != nil {
		return Response{}, err
	}

	mgr := task.NewManager(sess, eng.pred, eng.log)

	if t := sess.PendingClarification(); t != nil {
		return eng.handleAnswer(ctx, sess, mgr, t, input)
	}

	intent, err := eng.collab.ClassifyIntent(ctx, input, sess.RecentConversation(eng.window))
	if err != nil {
		return Response{}, err
	}
	sess.Query = input
	sess.Intent = intent.Intent
	sess.Touch()

	switch intent.Intent {
	case models.IntentNoAction:
		reply := intent.Reply
		if reply == "" {
			reply = "Okay."
		}
		return eng.reply(sess, reply)

	case models.IntentNeedsClarification:
		question := intent.Question
		if question == "" {
			question = "Could you give me a bit more detail about what you need?"
		}
		return eng.ask(sess, question)

	default: // IntentNeedsTool
		plan, err := eng.collab.PlanTasks(ctx, input, sess.RecentConversation(eng.window), eng.invoker.Catalog())
		if err != nil {
			return Response{}, err
		}
		if len(plan) == 0 {
			return eng.reply(sess, "I couldn't work out any concrete steps for that request.")
		}
		if _, err := mgr.Enqueue(plan, input); err != nil {
			return Response{}, err
		}
		if err := eng.snapshot(sess); err != nil {
			return Response{}, err
		}
		return eng.drain(ctx, sess, mgr)
	}
}

// handleAnswer feeds the input to the open clarification and continues
// execution. An abandoned clarification fails its task; the rest of the
// queue still runs.
func (eng *Engine) handleAnswer(ctx context.Context, sess *models.Session, mgr *task.Manager, t *models.Task, answer string) (Response, error) {
	outcome, resolveErr := eng.clarifier.Resolve(t, answer)
	switch outcome {
	case clarify.Reask:
		if resolveErr != nil && !models.IsClarificationExhausted(resolveErr) {
			return Response{}, resolveErr
		}
		question, err := eng.clarifier.Ask(t)
		if err != nil {
			return Response{}, err
		}
		return eng.ask(sess, question)

	case clarify.Abandoned:
		if err := mgr.Fail(t.ID, resolveErr); err != nil {
			return Response{}, err
		}
		if err := eng.snapshot(sess); err != nil {
			return Response{}, err
		}
		return eng.drain(ctx, sess, mgr)

	default: // Resolved
		if err := eng.snapshot(sess); err != nil {
			return Response{}, err
		}
		return eng.drain(ctx, sess, mgr)
	}
}

// Resume continues a session that still carries pending work: an open
// clarification is re-asked, runnable tasks are drained, and a session
// with nothing pending just says so.
func (eng *Engine) Resume(ctx context.Context, sess *models.Session) (Response, error) {
	sess.Status = models.SessionActive
	sess.Touch()

	if t := sess.PendingClarification(); t != nil {
		question, err := eng.clarifier.Ask(t)
		if err != nil {
			return Response{}, err
		}
		return eng.ask(sess, question)
	}

	if !sess.HasPendingWork() {
		if err := eng.snapshot(sess); err != nil {
			return Response{}, err
		}
		return Response{Reply: "Nothing pending in this session."}, nil
	}

	mgr := task.NewManager(sess, eng.pred, eng.log)
	return eng.drain(ctx, sess, mgr)
}

// drain runs the queue and turns the executor's outcome into a Response.
func (eng *Engine) drain(ctx context.Context, sess *models.Session, mgr *task.Manager) (Response, error) {
	result, err := eng.exec.RunPending(ctx, sess, mgr)
	if err != nil {
		return Response{}, err
	}

	switch {
	case result.Interrupted:
		return Response{Interrupted: true}, nil

	case result.Awaiting != nil:
		question, err := eng.clarifier.Ask(result.Awaiting)
		if err != nil {
			return Response{}, err
		}
		return eng.ask(sess, question)

	default:
		return eng.reply(sess, result.Answer)
	}
}

func (eng *Engine) reply(sess *models.Session, text string) (Response, error) {
	if err := eng.appendEntry(sess, "assistant", text); err != nil {
		return Response{}, err
	}
	return Response{Reply: text}, nil
}

func (eng *Engine) ask(sess *models.Session, question string) (Response, error) {
	if err := eng.appendEntry(sess, "assistant", question); err != nil {
		return Response{}, err
	}
	return Response{Question: question}, nil
}

func (eng *Engine) appendEntry(sess *models.Session, role, text string) error {
	if eng.store == nil {
		sess.Conversation = append(sess.Conversation, models.Entry{Role: role, Text: text, Timestamp: time.Now().UTC()})
		sess.Touch()
		return nil
	}
	return eng.store.AppendEntry(sess, role, text)
}

func (eng *Engine) snapshot(sess *models.Session) error {
	if eng.store == nil {
		return nil
	}
	return eng.store.Snapshot(sess)
}
