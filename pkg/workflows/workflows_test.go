package workflows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/agents"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/workflows"
)

func offlineDeps(replies ...memory.Reply) workflows.Deps {
	catalog := memory.NewCatalog()
	return workflows.Deps{Topics: catalog, Retriever: catalog, Generator: memory.NewGenerator(replies...)}
}

func run(t *testing.T, g *graph.Graph, values map[string]any) domain.Outcome {
	t.Helper()
	eng, err := relay.New(g)
	require.NoError(t, err)
	out, err := eng.Run(context.Background(), values)
	require.NoError(t, err)
	return out
}

func TestMultiAgent_DefaultPipeline(t *testing.T) {
	g, err := workflows.MultiAgent(offlineDeps(), workflows.Options{})
	require.NoError(t, err)
	assert.Equal(t, []domain.StageID{"analyze", "collect", "research", "write"}, g.Stages())

	out := run(t, g, map[string]any{agents.FieldTask: "Weekly AI roundup"})

	require.True(t, out.Done())
	assert.Equal(t, []domain.StageID{"research", "collect", "analyze", "write"}, out.Path)
	assert.Equal(t, "complete", out.State.Status())
	assert.Contains(t, out.State.String(agents.FieldReport), agents.ReportTitle)
	assert.Len(t, out.State.List(agents.FieldMessages), 4)
	assert.Len(t, out.State.List(agents.FieldArticles), 6)
}

func TestMultiAgent_OptionalStages(t *testing.T) {
	g, err := workflows.MultiAgent(offlineDeps(), workflows.Options{Sentiment: true, Edit: true})
	require.NoError(t, err)
	assert.Empty(t, g.Unreachable())

	out := run(t, g, map[string]any{agents.FieldTask: "Weekly AI roundup"})

	require.True(t, out.Done())
	assert.Equal(t, []domain.StageID{"research", "collect", "analyze", "sentiment", "write", "edit"}, out.Path)
	assert.NotEmpty(t, out.State.Map(agents.FieldSentiment))
	assert.Len(t, out.State.List(agents.FieldMessages), 6)
}

func TestMultiAgent_RepeatRunsAreIdentical(t *testing.T) {
	g, err := workflows.MultiAgent(offlineDeps(), workflows.Options{Sentiment: true, Edit: true})
	require.NoError(t, err)
	values := map[string]any{agents.FieldTask: "Weekly AI roundup"}

	first := run(t, g, values)
	second := run(t, g, values)

	require.True(t, first.Done())
	require.True(t, second.Done())
	assert.Equal(t, first.Path, second.Path)
	assert.Len(t, first.State.List(agents.FieldMessages), 6)
	assert.Equal(t, first.State.List(agents.FieldMessages), second.State.List(agents.FieldMessages))
	assert.Equal(t, first.State.List(agents.FieldArticles), second.State.List(agents.FieldArticles))
}

func TestMultiAgent_ResearchFailureSkipsCollection(t *testing.T) {
	deps := offlineDeps(memory.Reply{Err: errors.New("rate limited")})
	g, err := workflows.MultiAgent(deps, workflows.Options{})
	require.NoError(t, err)

	out := run(t, g, map[string]any{agents.FieldTask: "Weekly AI roundup"})

	require.True(t, out.Done())
	assert.Equal(t, []domain.StageID{"research", "analyze", "write"}, out.Path)
	assert.Contains(t, out.State.String(agents.FieldNotes), "Error in research: rate limited")
}

func TestMultiAgent_RequiresTask(t *testing.T) {
	g, err := workflows.MultiAgent(offlineDeps(), workflows.Options{})
	require.NoError(t, err)

	eng, err := relay.New(g)
	require.NoError(t, err)
	_, err = eng.Run(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestSingleAgent(t *testing.T) {
	g, err := workflows.SingleAgent(offlineDeps(memory.Reply{Text: "A short summary."}))
	require.NoError(t, err)

	out := run(t, g, map[string]any{agents.FieldSingleTask: "Summarize AI news"})

	require.True(t, out.Done())
	assert.Equal(t, []domain.StageID{"process"}, out.Path)
	assert.Equal(t, "A short summary.", out.State.String(agents.FieldSingleResult))
}

func TestBuild(t *testing.T) {
	_, err := workflows.Build("swarm", offlineDeps(), workflows.Options{})
	assert.ErrorContains(t, err, "unknown system")

	_, err = workflows.Build(workflows.Multi, workflows.Deps{}, workflows.Options{})
	assert.ErrorIs(t, err, graph.ErrConstruction)

	g, err := workflows.Build(workflows.Single, offlineDeps(), workflows.Options{})
	require.NoError(t, err)
	assert.Equal(t, workflows.StageProcess, g.Entry())

	assert.Equal(t, agents.FieldSingleTask, workflows.TaskField(workflows.Single))
	assert.Equal(t, agents.FieldReport, workflows.ResultField(workflows.Multi))
}

func TestSingleAgent_PrefersFastGenerator(t *testing.T) {
	deps := offlineDeps(memory.Reply{Text: "from the main model"})
	fast := memory.NewGenerator(memory.Reply{Text: "from the fast model"})
	deps.FastGenerator = fast

	g, err := workflows.SingleAgent(deps)
	require.NoError(t, err)

	out := run(t, g, map[string]any{agents.FieldSingleTask: "Summarize AI news"})

	assert.Equal(t, "from the fast model", out.State.String(agents.FieldSingleResult))
	assert.Len(t, fast.Prompts(), 1)
}
