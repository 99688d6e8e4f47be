package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

func newManager() (*Manager, *models.Session) {
	sess := &models.Session{ID: "test", Status: models.SessionActive}
	return NewManager(sess, nil, nil), sess
}

func TestEnqueueAssignsMonotonicIDs(t *testing.T) {
	m, sess := newManager()

	first, err := m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": 1, "b": 2}},
		{Tool: "multiply", Params: map[string]any{"a": 3, "b": 4}},
	}, "")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, first[0].ID)
	assert.Equal(t, 2, first[1].ID)

	// Ids keep counting across plans, even after completions.
	require.NoError(t, m.Complete(1, "3"))
	second, err := m.Enqueue(models.Plan{
		{Tool: "now", Params: map[string]any{}},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 3, second[0].ID)
	assert.Equal(t, 3, sess.NextTaskID)
}

func TestEnqueueRewritesPlanRelativeReferences(t *testing.T) {
	m, _ := newManager()

	// First plan occupies ids 1 and 2.
	_, err := m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": 1, "b": 1}},
		{Tool: "multiply", Params: map[string]any{"a": "{{task_1.result}}", "b": 2}},
	}, "")
	require.NoError(t, err)

	// The second plan's {{task_1.result}} means its own first step, which
	// gets id 3 here, not the session's very first task.
	second, err := m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": 5, "b": 5}},
		{Tool: "multiply", Params: map[string]any{"a": "{{task_1.result}}", "b": 2}},
		{Tool: "add", Params: map[string]any{"note": "sum was {{task_2.result}}, doubled"}},
	}, "")
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, "{{task_3.result}}", second[1].Params["a"])
	assert.Equal(t, "sum was {{task_4.result}}, doubled", second[2].Params["note"])

	// A reference past the plan's last step is left for the executor to
	// escalate, and {{prev.result}} is not positional at all.
	third, err := m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": "{{task_9.result}}", "b": "{{prev.result}}"}},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "{{task_9.result}}", third[0].Params["a"])
	assert.Equal(t, "{{prev.result}}", third[0].Params["b"])
}

func TestEnqueueEmptyPlan(t *testing.T) {
	m, sess := newManager()

	created, err := m.Enqueue(models.Plan{}, "")
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, sess.Pending)
}

func TestEnqueueMalformedStep(t *testing.T) {
	m, _ := newManager()

	_, err := m.Enqueue(models.Plan{{Tool: "", Params: map[string]any{}}}, "")
	var planErr *models.PlanValidationError
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, 0, planErr.Index)

	_, err = m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": 1}},
		{Tool: "multiply", Params: nil},
	}, "")
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, 1, planErr.Index)
}

func TestEnqueueFlagsAmbiguousParam(t *testing.T) {
	m, _ := newManager()

	created, err := m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": "my age", "b": float64(10)}, Description: "add ten to age"},
	}, "add 10 to my age")
	require.NoError(t, err)
	require.Len(t, created, 1)

	task := created[0]
	assert.Equal(t, models.TaskAwaitingClarification, task.Status)
	require.NotNil(t, task.Clarification)
	assert.Equal(t, "a", task.Clarification.Parameter)
	assert.Equal(t, models.ClarificationAwaitingAnswer, task.Clarification.State)
	assert.NotEmpty(t, task.Clarification.Question)
	assert.NotEmpty(t, task.Clarification.Examples)
	assert.False(t, task.Ready())
}

func TestNextReadySkipsAwaiting(t *testing.T) {
	m, _ := newManager()

	_, err := m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": "<value>"}},
		{Tool: "now", Params: map[string]any{}},
	}, "")
	require.NoError(t, err)

	next := m.NextReady()
	require.NotNil(t, next)
	assert.Equal(t, "now", next.Tool)
}

func TestCompleteAndFailMoveTasks(t *testing.T) {
	m, sess := newManager()

	_, err := m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": 1}},
		{Tool: "divide", Params: map[string]any{"a": 1, "b": 0}},
	}, "")
	require.NoError(t, err)

	require.NoError(t, m.Complete(1, "42"))
	require.NoError(t, m.Fail(2, errors.New("division by zero")))

	assert.Empty(t, sess.Pending)
	require.Len(t, sess.Completed, 2)
	assert.Equal(t, models.TaskCompleted, sess.Completed[0].Status)
	assert.Equal(t, "42", sess.Completed[0].Result)
	assert.Equal(t, models.TaskFailed, sess.Completed[1].Status)
	assert.Equal(t, "division by zero", sess.Completed[1].Error)

	// Unknown ids are rejected.
	assert.Error(t, m.Complete(99, ""))
	assert.Error(t, m.Fail(99, nil))
}

func TestRequestClarificationMidRun(t *testing.T) {
	m, _ := newManager()

	_, err := m.Enqueue(models.Plan{{Tool: "add", Params: map[string]any{"a": 1}}}, "")
	require.NoError(t, err)

	require.NoError(t, m.RequestClarification(1, "a", "Which value?", []string{"7"}))
	task := m.Find(1)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskAwaitingClarification, task.Status)
	assert.Equal(t, "Which value?", task.Clarification.Question)
	assert.Nil(t, m.NextReady())
}

func TestSummarize(t *testing.T) {
	m, _ := newManager()

	_, err := m.Enqueue(models.Plan{
		{Tool: "add", Params: map[string]any{"a": 1}},
		{Tool: "add", Params: map[string]any{"a": "TBD"}},
		{Tool: "now", Params: map[string]any{}},
	}, "")
	require.NoError(t, err)
	require.NoError(t, m.Complete(1, "ok"))
	require.NoError(t, m.Fail(3, errors.New("boom")))

	s := m.Summarize()
	assert.Equal(t, Summary{Pending: 0, Awaiting: 1, Completed: 1, Failed: 1}, s)
}

func TestHeuristicPredicateTable(t *testing.T) {
	h := NewHeuristic()

	cases := []struct {
		name      string
		value     string
		ambiguous bool
	}{
		{"a", "42", false},
		{"a", "{{task_1.result}}", false},
		{"a", "{{prev.result}}", false},
		{"city", "Tokyo", false},
		{"a", "<value>", true},
		{"a", "{placeholder}", true},
		{"name", "USER_NAME", true},
		{"a", "TBD", true},
		{"a", "unknown", true},
		{"a", "my age", true},
		{"path", "user's home directory", true},
		{"a", "", false},
	}
	for _, tc := range cases {
		verdict := h.Classify(tc.name, tc.value, "")
		assert.Equal(t, tc.ambiguous, verdict.Ambiguous, "value %q", tc.value)
		if tc.ambiguous {
			assert.NotEmpty(t, verdict.Question, "value %q", tc.value)
		}
	}
}

func TestExamplesFollowParameterName(t *testing.T) {
	h := NewHeuristic()

	v := h.Classify("age", "my age", "")
	require.True(t, v.Ambiguous)
	assert.Contains(t, v.Examples, "30")

	v = h.Classify("filename", "<file>", "")
	require.True(t, v.Ambiguous)
	assert.Contains(t, v.Examples, "/tmp/data.txt")
}
