package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay/pkg/adapters/file"
	"github.com/aretw0/relay/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunHistoryStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Atomicity(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, ports.RunRecord{ID: "run-1", Task: "first"}))
	require.NoError(t, store.Save(ctx, ports.RunRecord{ID: "run-1", Task: "second"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")
	assert.Equal(t, "run-1.json", entries[0].Name())

	rec, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "second", rec.Task)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, ports.RunRecord{ID: "../escape"}))
	assert.Error(t, store.Save(ctx, ports.RunRecord{}))
	_, err := store.Load(ctx, filepath.Join("a", "b"))
	assert.Error(t, err)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	runs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
