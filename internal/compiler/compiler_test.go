package compiler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/aretw0/relay/pkg/workflows"
)

func agentRegistry() *registry.Registry {
	catalog := memory.NewCatalog()
	return registry.Agents(workflows.Deps{Topics: catalog, Retriever: catalog, Generator: memory.NewGenerator()})
}

func TestCompileFile_ResearchPipeline(t *testing.T) {
	p, err := CompileFile(filepath.Join("..", "..", "examples", "pipelines", "research.yaml"), agentRegistry())
	require.NoError(t, err)
	assert.Equal(t, "research", p.Name)
	assert.Equal(t, 12, p.MaxSteps)
	assert.Empty(t, p.Graph.Unreachable())

	eng, err := relay.New(p.Graph, relay.WithMaxSteps(p.MaxSteps))
	require.NoError(t, err)
	out, err := eng.Run(context.Background(), map[string]any{"current_task": "AI trends"})
	require.NoError(t, err)

	assert.True(t, out.Done())
	assert.Equal(t, []domain.StageID{"research", "collect", "analyze", "sentiment", "write", "edit"}, out.Path)
	assert.Equal(t, "complete", out.State.Status())
}

func TestCompileFile_Assistant(t *testing.T) {
	p, err := CompileFile(filepath.Join("..", "..", "examples", "pipelines", "assistant.yaml"), agentRegistry())
	require.NoError(t, err)
	assert.Equal(t, domain.StageID("process"), p.Graph.Entry())
}

const base = `
entry: fetch
schema:
  route: next
  status: status
  fields:
    next: { type: string }
    status: { type: string }
`

func TestCompile_Errors(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterStep("noop", domain.StepFunc(func(context.Context, domain.State) domain.Update { return nil }))

	tests := []struct {
		name  string
		yaml  string
		check func(t *testing.T, err error)
	}{
		{
			name: "dangling route",
			yaml: base + "stages:\n  fetch: { step: noop, routes: { go: ghost } }\n",
			check: func(t *testing.T, err error) {
				var dangling *graph.DanglingReferenceError
				require.True(t, errors.As(err, &dangling))
				assert.Equal(t, domain.StageID("ghost"), dangling.Target)
			},
		},
		{
			name: "invalid entry",
			yaml: "entry: nowhere\n" + base[len("\nentry: fetch"):] + "stages:\n  fetch: { step: noop }\n",
			check: func(t *testing.T, err error) {
				var invalid *graph.InvalidEntryError
				assert.True(t, errors.As(err, &invalid))
			},
		},
		{
			name: "unknown step",
			yaml: base + "stages:\n  fetch: { step: teleport }\n",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, registry.ErrStepNotFound)
				assert.ErrorIs(t, err, graph.ErrConstruction)
			},
		},
		{
			name: "routes and next",
			yaml: base + "stages:\n  fetch: { step: noop, next: fetch, routes: { a: fetch } }\n",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, graph.ErrConstruction)
			},
		},
		{
			name: "bad field type",
			yaml: base + "    extra: { type: complex }\nstages:\n  fetch: { step: noop }\n",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, graph.ErrConstruction)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = Compile(def, reg)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("entry: a\nstagez: {}\n"))
	assert.ErrorContains(t, err, "stagez")

	_, err = Parse([]byte(""))
	assert.Error(t, err)
}

func TestCompile_SelfLoopAllowed(t *testing.T) {
	reg := registry.NewRegistry()
	reg.RegisterStep("noop", domain.StepFunc(func(context.Context, domain.State) domain.Update { return nil }))

	def, err := Parse([]byte(base + "stages:\n  fetch: { step: noop, next: fetch }\n"))
	require.NoError(t, err)
	p, err := Compile(def, reg)
	require.NoError(t, err)

	eng, err := relay.New(p.Graph, relay.WithMaxSteps(3))
	require.NoError(t, err)
	out, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, out.Err, domain.ErrStepBudgetExceeded)
	assert.Equal(t, 3, out.Steps)
}
