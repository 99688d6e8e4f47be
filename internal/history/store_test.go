package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history", "executions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndStats(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	execs := []*Execution{
		{SessionID: "s1", TaskID: 1, Tool: "add", Params: map[string]any{"a": float64(15), "b": float64(9)},
			Description: "add numbers", Success: true, Result: "24", Attempts: 1, Duration: 20 * time.Millisecond},
		{SessionID: "s1", TaskID: 2, Tool: "multiply", Success: true, Result: "48", Attempts: 1, Duration: 10 * time.Millisecond},
		{SessionID: "s1", TaskID: 3, Tool: "divide", Success: false, ErrorMessage: "division by zero",
			ErrorClass: models.ClassParameterError, Attempts: 3, Duration: 30 * time.Millisecond},
		{SessionID: "s2", TaskID: 1, Tool: "add", Success: true, Result: "2", Attempts: 1},
	}
	for _, exec := range execs {
		require.NoError(t, store.Record(ctx, exec))
		assert.NotZero(t, exec.ID)
	}

	stats, err := store.SessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.ByTool["add"])
	assert.Equal(t, int64(20), stats.AvgMs)

	all, err := store.SessionStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, all.Total)
}

func TestRecentFailures(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Record(ctx, &Execution{
			SessionID: "s1", TaskID: i, Tool: "divide", Success: false,
			Params:       map[string]any{"a": float64(i), "b": float64(0)},
			ErrorMessage: "division by zero", ErrorClass: models.ClassParameterError, Attempts: 1,
		}))
	}
	require.NoError(t, store.Record(ctx, &Execution{
		SessionID: "s1", TaskID: 4, Tool: "divide", Success: true, Result: "2", Attempts: 1,
	}))

	failures, err := store.RecentFailures(ctx, "divide", 2)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	// Newest first.
	assert.Equal(t, 3, failures[0].TaskID)
	assert.Equal(t, 2, failures[1].TaskID)
	assert.Equal(t, models.ClassParameterError, failures[0].ErrorClass)
	assert.Equal(t, float64(3), failures[0].Params["a"])

	none, err := store.RecentFailures(ctx, "add", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClear(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, &Execution{SessionID: "s1", TaskID: 1, Tool: "add", Success: true}))
	require.NoError(t, store.Clear(ctx))

	stats, err := store.SessionStats(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
}

func TestInMemoryStore(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(context.Background(), &Execution{
		SessionID: "s", TaskID: 1, Tool: "now", Success: true, Result: "2026-08-31T00:00:00Z",
	}))
}
