package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, Entry{
			Question:   "question",
			Scenario:   "scenario_1_3",
			Mode:       "llm",
			SQL:        "SELECT 1",
			RowCount:   i,
			DurationMs: 12,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	require.Equal(t, 2, entries[0].RowCount)
	require.Equal(t, 1, entries[1].RowCount)
	require.NotZero(t, entries[0].ID)
}

func TestRecordFailedQueryKeepsError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Entry{
		Question: "bad question",
		Scenario: "scenario_4_5",
		Mode:     "vanna",
		SQL:      "",
		Error:    "generation failed",
	}))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "generation failed", entries[0].Error)
	require.False(t, entries[0].CreatedAt.IsZero())
}

func TestRecentClampsLimit(t *testing.T) {
	store := openTestStore(t)
	entries, err := store.Recent(context.Background(), -5)
	require.NoError(t, err)
	require.Empty(t, entries)
}
