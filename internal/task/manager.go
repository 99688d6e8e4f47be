// Package task turns plans into queued tasks and tracks them through the
// execution state machine.
package task

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
)

// planReference matches task references anywhere inside a planned string
// parameter. Plans number tasks from 1; the session numbers them globally.
var planReference = regexp.MustCompile(`\{\{task_(\d+)\.result\}\}`)

// Manager owns the task queue of one session. It assigns monotonically
// increasing ids, screens planned parameters for ambiguity, and moves tasks
// between the pending and completed lists. It is not goroutine-safe; the
// engine serializes access.
type Manager struct {
	sess *models.Session
	pred Predicate
	log  logger.Logger
}

// NewManager creates a Manager over the given session. A nil predicate
// falls back to the default heuristic.
func NewManager(sess *models.Session, pred Predicate, log logger.Logger) *Manager {
	if pred == nil {
		pred = NewHeuristic()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Manager{sess: sess, pred: pred, log: log}
}

// Enqueue validates the plan and appends one task per step. Steps with an
// ambiguous string parameter enter the queue as AwaitingClarification with
// an attached request; the rest start Pending. An empty plan enqueues
// nothing. Task ids keep counting up across plans within the session, so
// plan-relative {{task_N.result}} references are rewritten here to the
// session-global id assigned to the plan's Nth step.
func (m *Manager) Enqueue(plan models.Plan, query string) ([]*models.Task, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	firstID := m.sess.NextTaskID + 1
	var created []*models.Task
	for _, step := range plan {
		m.sess.NextTaskID++
		now := time.Now().UTC()
		t := &models.Task{
			ID:          m.sess.NextTaskID,
			Description: step.Description,
			Tool:        step.Tool,
			Params:      rewriteReferences(step.Params, firstID, len(plan)),
			Status:      models.TaskPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if t.Description == "" {
			t.Description = fmt.Sprintf("run %s", t.Tool)
		}

		if name, verdict, ok := m.firstAmbiguousParam(t.Params, query); ok {
			t.Status = models.TaskAwaitingClarification
			t.Clarification = &models.ClarificationRequest{
				TaskID:    t.ID,
				Parameter: name,
				Question:  verdict.Question,
				Examples:  verdict.Examples,
				State:     models.ClarificationAwaitingAnswer,
			}
			m.log.LogDebug(fmt.Sprintf("task %d parameter %q needs clarification", t.ID, name))
		}

		m.sess.Pending = append(m.sess.Pending, t)
		created = append(created, t)
	}
	return created, nil
}

// rewriteReferences maps plan-relative references in string parameters to
// session-global task ids. Step N of the plan received id firstID+N-1.
// References outside the plan are left alone; the executor escalates them.
func rewriteReferences(params map[string]any, firstID, steps int) map[string]any {
	out := make(map[string]any, len(params))
	for name, value := range params {
		s, isString := value.(string)
		if !isString {
			out[name] = value
			continue
		}
		out[name] = planReference.ReplaceAllStringFunc(s, func(ref string) string {
			n, err := strconv.Atoi(planReference.FindStringSubmatch(ref)[1])
			if err != nil || n < 1 || n > steps {
				return ref
			}
			return fmt.Sprintf("{{task_%d.result}}", firstID+n-1)
		})
	}
	return out
}

// firstAmbiguousParam runs the predicate over string parameters in a stable
// order and returns the first ambiguous one.
func (m *Manager) firstAmbiguousParam(params map[string]any, query string) (string, Verdict, bool) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, isString := params[name].(string)
		if !isString {
			continue
		}
		if verdict := m.pred.Classify(name, value, query); verdict.Ambiguous {
			return name, verdict, true
		}
	}
	return "", Verdict{}, false
}

// NextReady returns the first pending task with no open clarification, or
// nil when nothing is runnable.
func (m *Manager) NextReady() *models.Task {
	for _, t := range m.sess.Pending {
		if t.Ready() {
			return t
		}
	}
	return nil
}

// Find returns the pending task with the given id, or nil.
func (m *Manager) Find(id int) *models.Task {
	for _, t := range m.sess.Pending {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Complete moves the task from pending to completed with its result.
func (m *Manager) Complete(id int, result string) error {
	t := m.remove(id)
	if t == nil {
		return fmt.Errorf("task %d not pending", id)
	}
	t.Status = models.TaskCompleted
	t.Result = result
	t.Error = ""
	t.Touch()
	m.sess.Completed = append(m.sess.Completed, t)
	return nil
}

// Fail moves the task from pending to completed as failed, recording err.
func (m *Manager) Fail(id int, failure error) error {
	t := m.remove(id)
	if t == nil {
		return fmt.Errorf("task %d not pending", id)
	}
	t.Status = models.TaskFailed
	if failure != nil {
		t.Error = failure.Error()
	}
	t.Touch()
	m.sess.Completed = append(m.sess.Completed, t)
	return nil
}

// RequestClarification puts the task back into the awaiting state with a
// fresh request. Used when the executor discovers mid-run that a parameter
// cannot be resolved.
func (m *Manager) RequestClarification(id int, parameter, question string, examples []string) error {
	t := m.Find(id)
	if t == nil {
		return fmt.Errorf("task %d not pending", id)
	}
	t.Status = models.TaskAwaitingClarification
	t.Clarification = &models.ClarificationRequest{
		TaskID:    id,
		Parameter: parameter,
		Question:  question,
		Examples:  examples,
		State:     models.ClarificationAwaitingAnswer,
	}
	t.Touch()
	return nil
}

func (m *Manager) remove(id int) *models.Task {
	for i, t := range m.sess.Pending {
		if t.ID == id {
			m.sess.Pending = append(m.sess.Pending[:i], m.sess.Pending[i+1:]...)
			return t
		}
	}
	return nil
}

// Summary counts tasks by state for status displays.
type Summary struct {
	Pending   int
	Awaiting  int
	Completed int
	Failed    int
}

// Summarize tallies the session's tasks.
func (m *Manager) Summarize() Summary {
	var s Summary
	for _, t := range m.sess.Pending {
		if t.Status == models.TaskAwaitingClarification {
			s.Awaiting++
		} else {
			s.Pending++
		}
	}
	for _, t := range m.sess.Completed {
		if t.Status == models.TaskFailed {
			s.Failed++
		} else {
			s.Completed++
		}
	}
	return s
}
