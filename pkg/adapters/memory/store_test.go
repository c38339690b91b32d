package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunHistoryStoreContract(t, store)
}

func TestCatalog_Trending(t *testing.T) {
	c := memory.NewCatalog()

	topics, err := c.Trending(context.Background(), "week", 5)
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultTopics[:5], topics)

	all, err := c.Trending(context.Background(), "month", 100)
	require.NoError(t, err)
	assert.Len(t, all, len(memory.DefaultTopics))

	_, err = c.Trending(context.Background(), "decade", 5)
	assert.Error(t, err)
}

func TestCatalog_Fetch(t *testing.T) {
	c := memory.NewCatalog()

	records, err := c.Fetch(context.Background(), "RAG Systems", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Deep Dive into RAG Systems", records[0].Title)
	assert.Equal(t, "https://example.com/articles/rag-systems", records[0].URL)
	assert.Equal(t, "Engineering Digest", records[1].Source)
	assert.Equal(t, 2025, records[0].Timestamp.Year())

	_, err = c.Fetch(context.Background(), " ", 2)
	assert.Error(t, err)
}

func TestCatalog_LatencyHonoursCancellation(t *testing.T) {
	c := memory.NewCatalog(memory.WithLatency(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, "x", 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerator_ScriptThenOffline(t *testing.T) {
	boom := errors.New("boom")
	g := memory.NewGenerator(memory.Reply{Text: "first"}, memory.Reply{Err: boom})

	out, err := g.Generate(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	_, err = g.Generate(context.Background(), "p2")
	assert.ErrorIs(t, err, boom)

	out, err = g.Generate(context.Background(), "Summarize these topics:\n\nA\nB")
	require.NoError(t, err)
	assert.Equal(t, "(offline) Summarize these topics:\n\n- A\n- B", out)

	assert.Equal(t, []string{"p1", "p2", "Summarize these topics:\n\nA\nB"}, g.Prompts())
}
