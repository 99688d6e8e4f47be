package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateWritesLayout(t *testing.T) {
	store := openStore(t)

	sess, err := store.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, models.SessionActive, sess.Status)

	for _, rel := range []string{
		"session.json",
		"conversation.txt",
		filepath.Join("tasks", "pending.json"),
		filepath.Join("tasks", "completed.json"),
		filepath.Join("tasks", "current.txt"),
	} {
		_, err := os.Stat(filepath.Join(store.Dir(), rel))
		assert.NoError(t, err, rel)
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, nil)
	require.NoError(t, err)

	sess, err := store.Create()
	require.NoError(t, err)
	sess.Query = "15 plus 9 then doubled"
	sess.Intent = models.IntentNeedsTool
	sess.Pending = []*models.Task{
		{ID: 2, Description: "double it", Tool: "multiply", Params: map[string]any{"a": "{{prev.result}}", "b": float64(2)}, Status: models.TaskPending},
	}
	sess.Completed = []*models.Task{
		{ID: 1, Description: "add numbers", Tool: "add", Params: map[string]any{"a": float64(15), "b": float64(9)}, Status: models.TaskCompleted, Result: "24"},
	}
	sess.NextTaskID = 3
	require.NoError(t, store.AppendEntry(sess, "user", "15 plus 9 then doubled"))
	require.NoError(t, store.Close())

	// A fresh store (new process) restores the same session.
	reopened, err := Open(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	restored, err := reopened.Load(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, restored.ID)
	assert.Equal(t, "15 plus 9 then doubled", restored.Query)
	assert.Equal(t, models.IntentNeedsTool, restored.Intent)
	require.Len(t, restored.Pending, 1)
	require.Len(t, restored.Completed, 1)
	assert.Equal(t, "multiply", restored.Pending[0].Tool)
	assert.Equal(t, "{{prev.result}}", restored.Pending[0].Params["a"])
	assert.Equal(t, "24", restored.Completed[0].Result)
	assert.Equal(t, 3, restored.NextTaskID)
	require.Len(t, restored.Conversation, 1)
	assert.Equal(t, "user", restored.Conversation[0].Role)
}

func TestLoadMissingSession(t *testing.T) {
	store := openStore(t)

	_, err := store.Load("")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestLoadWrongID(t *testing.T) {
	store := openStore(t)

	_, err := store.Create()
	require.NoError(t, err)

	_, err = store.Load("not-the-current-id")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestLoadCorruptedSession(t *testing.T) {
	store := openStore(t)

	_, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "session.json"), []byte("{truncated"), 0o644))

	_, err = store.Load("")
	var corrupt *models.StateCorruptionError
	require.True(t, errors.As(err, &corrupt), "got %v", err)
	assert.Contains(t, corrupt.Path, "session.json")
}

func TestLoadResetsExecutingTasks(t *testing.T) {
	store := openStore(t)

	sess, err := store.Create()
	require.NoError(t, err)
	sess.Pending = []*models.Task{
		{ID: 1, Tool: "add", Status: models.TaskExecuting},
		{ID: 2, Tool: "multiply", Status: models.TaskRetryPending},
		{ID: 3, Tool: "now", Status: models.TaskAwaitingClarification},
	}
	require.NoError(t, store.Snapshot(sess))

	restored, err := store.Load(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, restored.Pending[0].Status)
	assert.Equal(t, models.TaskPending, restored.Pending[1].Status)
	// Clarification waits survive a restart untouched.
	assert.Equal(t, models.TaskAwaitingClarification, restored.Pending[2].Status)
}

func TestSecondOpenFails(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, nil)
	require.NoError(t, err)
	defer store.Close()

	_, err = Open(dir, nil)
	require.Error(t, err)
	assert.True(t, models.IsSessionLock(err), "got %v", err)
}

func TestAppendEntryTranscript(t *testing.T) {
	store := openStore(t)

	sess, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AppendEntry(sess, "user", "hello"))
	require.NoError(t, store.AppendEntry(sess, "assistant", "hi there"))

	data, err := os.ReadFile(filepath.Join(store.Dir(), "conversation.txt"))
	require.NoError(t, err)
	transcript := string(data)
	assert.Contains(t, transcript, "[USER] hello")
	assert.Contains(t, transcript, "[ASSISTANT] hi there")
	// Entries appear in order.
	assert.Less(t, strings.Index(transcript, "hello"), strings.Index(transcript, "hi there"))
}

func TestCurrentFileRendering(t *testing.T) {
	store := openStore(t)

	sess, err := store.Create()
	require.NoError(t, err)
	sess.Query = "add 10 to my age"
	sess.Intent = models.IntentNeedsTool
	sess.Pending = []*models.Task{
		{ID: 1, Description: "add ten", Tool: "add", Status: models.TaskPending},
	}
	require.NoError(t, store.Snapshot(sess))

	data, err := os.ReadFile(filepath.Join(store.Dir(), "tasks", "current.txt"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Current request: add 10 to my age")
	assert.Contains(t, text, "Pending tasks: 1")
	assert.Contains(t, text, "tool: add")
}

func TestArchiveAndList(t *testing.T) {
	store := openStore(t)

	sess, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AppendEntry(sess, "user", "archive me"))
	require.NoError(t, store.Archive(sess))

	archived, err := store.LoadArchived(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionArchived, archived.Status)

	transcript, err := store.Transcript(sess.ID)
	require.NoError(t, err)
	assert.Contains(t, string(transcript), "archive me")

	infos, err := store.List()
	require.NoError(t, err)
	require.NotEmpty(t, infos)
	assert.True(t, infos[0].Current)
}

func TestClearStartsFresh(t *testing.T) {
	store := openStore(t)

	sess, err := store.Create()
	require.NoError(t, err)
	require.NoError(t, store.AppendEntry(sess, "user", "old business"))
	require.NoError(t, store.Clear(sess))

	_, err = store.Load("")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	// The archive keeps the old session.
	_, err = store.LoadArchived(sess.ID)
	assert.NoError(t, err)

	fresh, err := store.Create()
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, fresh.ID)
	assert.Empty(t, fresh.Conversation)
}
