package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/persistence/middleware"
	"github.com/aretw0/relay/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sealedStore(t *testing.T, underlying ports.HistoryStore, cfg middleware.EncryptionConfig) ports.HistoryStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(underlying)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunHistoryStoreContract(t, sealedStore(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	rec := ports.RunRecord{ID: "run-1", System: "multi", Task: "acquisition rumours", Report: "# Confidential", Status: "done"}
	require.NoError(t, secure.Save(ctx, rec))

	stored, err := underlying.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, stored.Task, "task is hidden at rest")
	assert.True(t, strings.HasPrefix(stored.Report, "sealed:v1:"))
	assert.NotContains(t, stored.Report, "Confidential")
	assert.Equal(t, "done", stored.Status, "status stays readable")

	loaded, err := secure.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	require.NoError(t, sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey}).
		Save(ctx, ports.RunRecord{ID: "run-1", Task: "before rotation"}))

	rotated := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	loaded, err := rotated.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "before rotation", loaded.Task)

	withoutFallback := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey})
	_, err = withoutFallback.Load(ctx, "run-1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, ports.RunRecord{ID: "plain", Report: "# Plain"}))

	secure := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := secure.Load(ctx, "plain")
	assert.ErrorContains(t, err, "missing its encrypted envelope")

	_, err = secure.List(ctx, 0)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_KeySize(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrKeySize)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrKeySize)
}

func TestEncryptionMiddleware_EnvelopeBoundToRun(t *testing.T) {
	underlying := memory.NewStore()
	secure := sealedStore(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()
	require.NoError(t, secure.Save(ctx, ports.RunRecord{ID: "run-1", Task: "secret"}))

	stored, err := underlying.Load(ctx, "run-1")
	require.NoError(t, err)
	stored.ID = "run-2"
	require.NoError(t, underlying.Save(ctx, stored))

	_, err = secure.Load(ctx, "run-2")
	assert.ErrorContains(t, err, "no configured key")
}
