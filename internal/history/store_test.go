package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webrunner/internal/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func runAt(id string, start time.Time, status engine.Status) *engine.RunOutcome {
	return &engine.RunOutcome{
		ExecutionID:     id,
		StartTime:       start,
		EndTime:         start.Add(time.Minute),
		Status:          status,
		TotalScenarios:  2,
		PassedScenarios: 1,
		FailedScenarios: 1,
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(runAt("exec_a", base, engine.StatusCompleted), "reports/a.json"))
	require.NoError(t, store.Record(runAt("exec_b", base.Add(time.Hour), engine.StatusError), ""))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "exec_b", entries[0].ExecutionID)
	assert.Equal(t, "error", entries[0].Status)
	assert.Equal(t, "exec_a", entries[1].ExecutionID)
	assert.Equal(t, "reports/a.json", entries[1].ReportPath)
	assert.Equal(t, 2, entries[1].Total)
	assert.Equal(t, 1, entries[1].Passed)
	assert.Equal(t, 1, entries[1].Failed)
	assert.True(t, entries[1].StartedAt.Equal(base))
	assert.True(t, entries[1].FinishedAt.Equal(base.Add(time.Minute)))
}

func TestRecentLimit(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		run := runAt("exec_"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour), engine.StatusCompleted)
		require.NoError(t, store.Record(run, ""))
	}

	entries, err := store.Recent(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "exec_e", entries[0].ExecutionID)
}

func TestRecordOverwritesSameExecution(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(runAt("exec_a", base, engine.StatusRunning), ""))
	require.NoError(t, store.Record(runAt("exec_a", base, engine.StatusCompleted), "reports/a.json"))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "completed", entries[0].Status)
	assert.Equal(t, "reports/a.json", entries[0].ReportPath)
}

func TestRecentEmptyStore(t *testing.T) {
	store := newTestStore(t)
	entries, err := store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
