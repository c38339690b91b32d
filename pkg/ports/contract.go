package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHistoryStoreContract runs a suite of tests to verify that a HistoryStore implementation
// adheres to the defined interface contract.
func RunHistoryStoreContract(t *testing.T, store HistoryStore) {
	ctx := context.Background()
	prefix := "contract-run-" + time.Now().Format("20060102150405")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	record := func(id string, offset time.Duration) RunRecord {
		return RunRecord{
			ID:         id,
			System:     "multi",
			Task:       "weekly tech trends",
			Success:    true,
			Status:     string(domain.RunDone),
			Diagnostic: "complete",
			Summary:    "summary",
			Report:     "# Report",
			Path:       []string{"research", "write"},
			Steps:      2,
			StartedAt:  base.Add(offset),
			Duration:   1500 * time.Millisecond,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		id := prefix + "-a"
		rec := record(id, 0)

		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Task, loaded.Task)
		assert.Equal(t, rec.Path, loaded.Path)
		assert.Equal(t, rec.Duration, loaded.Duration)
		assert.True(t, rec.StartedAt.Equal(loaded.StartedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		id := prefix + "-b"
		rec := record(id, 0)
		require.NoError(t, store.Save(ctx, rec))

		rec.Success = false
		rec.Reason = domain.ReasonCancelled
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.False(t, loaded.Success)
		assert.Equal(t, domain.ReasonCancelled, loaded.Reason)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-c"
		require.NoError(t, store.Save(ctx, record(id, 0)))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, id), "Deleting twice is not an error")
	})

	t.Run("List Most Recent First", func(t *testing.T) {
		var ids []string
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("%s-list-%d", prefix, i)
			ids = append(ids, id)
			require.NoError(t, store.Save(ctx, record(id, time.Duration(i+10)*time.Hour)))
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		all, err := store.List(ctx, 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(all), 3)
		assert.Equal(t, ids[2], all[0].ID)
		assert.Equal(t, ids[1], all[1].ID)
		assert.Equal(t, ids[0], all[2].ID)

		limited, err := store.List(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
	})
}
