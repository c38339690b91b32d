package dsl

import (
	"fmt"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/schema"
)

// Builder manages the graph construction.
type Builder struct {
	schema *schema.Schema
	stages map[domain.StageID]*StageBuilder
	order  []domain.StageID
	entry  domain.StageID
}

// New creates a new graph builder for the given state schema.
func New(s *schema.Schema) *Builder {
	return &Builder{
		schema: s,
		stages: make(map[domain.StageID]*StageBuilder),
	}
}

// Add creates a new stage in the graph.
// If the stage already exists, it returns the existing builder.
// The first stage added is the entry unless Entry is called.
func (b *Builder) Add(id domain.StageID) *StageBuilder {
	if sb, ok := b.stages[id]; ok {
		return sb
	}
	sb := &StageBuilder{id: id, builder: b}
	b.stages[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Entry sets the first stage of every run.
func (b *Builder) Entry(id domain.StageID) *Builder {
	b.entry = id
	return b
}

// Build compiles the stages into a validated graph.
func (b *Builder) Build() (*graph.Graph, error) {
	stages := make(map[domain.StageID]domain.Step, len(b.stages))
	routes := make(map[domain.StageID]graph.Router)

	for _, id := range b.order {
		sb := b.stages[id]
		if sb.fixed != "" && len(sb.cases) > 0 {
			return nil, fmt.Errorf("%w: stage %q mixes Go and Branch", graph.ErrConstruction, id)
		}

		step := sb.step
		if step != nil && len(sb.writes) > 0 {
			step = domain.Declared(step, sb.writes...)
		}
		stages[id] = step

		switch {
		case sb.fixed != "":
			routes[id] = graph.Always(sb.fixed)
		case len(sb.cases) > 0:
			routes[id] = graph.Table(sb.cases)
		}
	}

	entry := b.entry
	if entry == "" && len(b.order) > 0 {
		entry = b.order[0]
	}

	g, err := graph.Build(b.schema, stages, routes, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}
