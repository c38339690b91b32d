package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/agents"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/aretw0/relay/pkg/workflows"
)

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	r.RegisterStep("noop", domain.StepFunc(func(context.Context, domain.State) domain.Update { return nil }))

	step, err := r.Resolve("noop", nil)
	require.NoError(t, err)
	assert.NotNil(t, step)

	_, err = r.Resolve("missing", nil)
	assert.ErrorIs(t, err, registry.ErrStepNotFound)
	assert.Equal(t, []string{"noop"}, r.Names())
}

func TestAgents(t *testing.T) {
	catalog := memory.NewCatalog()
	r := registry.Agents(workflows.Deps{Topics: catalog, Retriever: catalog, Generator: memory.NewGenerator()})

	assert.Equal(t, []string{"analyst", "assistant", "collector", "editor", "researcher", "sentiment", "writer"}, r.Names())

	step, err := r.Resolve(registry.StepCollector, map[string]any{"max_topics": "2", "per_topic": 1})
	require.NoError(t, err)
	c := step.(*agents.Collector)
	assert.Equal(t, 2, c.MaxTopics)
	assert.Equal(t, 1, c.PerTopic)

	step, err = r.Resolve(registry.StepAnalyst, map[string]any{"sentiment": true})
	require.NoError(t, err)
	assert.True(t, step.(*agents.Analyst).Sentiment)

	_, err = r.Resolve(registry.StepWriter, map[string]any{"colour": "blue"})
	assert.ErrorContains(t, err, "invalid params")

	_, err = r.Resolve(registry.StepSentiment, map[string]any{"x": 1})
	assert.Error(t, err)
}
