package graph

import (
	"fmt"
	"sort"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/schema"
)

// Graph is an immutable, validated set of stages and routers.
type Graph struct {
	schema *schema.Schema
	entry  domain.StageID
	stages map[domain.StageID]domain.Step
	routes map[domain.StageID]Router
	order  []domain.StageID
}

// Build validates and assembles a graph. Stages without a router are terminal:
// they always proceed to End. Checks run in sorted order so the first error is
// deterministic.
func Build(s *schema.Schema, stages map[domain.StageID]domain.Step, routes map[domain.StageID]Router, entry domain.StageID) (*Graph, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: schema is required", ErrConstruction)
	}
	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}

	order := make([]domain.StageID, 0, len(stages))
	for id := range stages {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	for _, id := range order {
		if id == "" || id == domain.End {
			return nil, &InvalidStageError{Stage: id, Reason: "identifier is reserved"}
		}
		step := stages[id]
		if step == nil {
			return nil, &InvalidStageError{Stage: id, Reason: "step is nil"}
		}
		if d, ok := step.(domain.Declarer); ok {
			for _, field := range d.Writes() {
				if _, ok := s.Field(field); !ok {
					return nil, &UnknownFieldError{Stage: id, Field: field}
				}
			}
		}
	}

	if _, ok := stages[entry]; !ok {
		return nil, &InvalidEntryError{Entry: entry}
	}

	routeKeys := make([]domain.StageID, 0, len(routes))
	for id := range routes {
		routeKeys = append(routeKeys, id)
	}
	sort.Slice(routeKeys, func(i, j int) bool { return routeKeys[i] < routeKeys[j] })

	for _, id := range routeKeys {
		if _, ok := stages[id]; !ok {
			return nil, &DanglingReferenceError{Target: id}
		}
		r := routes[id]
		if r == nil {
			return nil, &InvalidStageError{Stage: id, Reason: "router is nil"}
		}
		for _, e := range r.Edges() {
			if e.To == domain.End {
				continue
			}
			if _, ok := stages[e.To]; !ok {
				return nil, &DanglingReferenceError{Stage: id, Target: e.To}
			}
		}
	}

	g := &Graph{
		schema: s,
		entry:  entry,
		stages: make(map[domain.StageID]domain.Step, len(stages)),
		routes: make(map[domain.StageID]Router, len(routes)),
		order:  order,
	}
	for id, step := range stages {
		g.stages[id] = step
	}
	for id, r := range routes {
		g.routes[id] = r
	}
	return g, nil
}

// Stage returns the step registered under id.
func (g *Graph) Stage(id domain.StageID) (domain.Step, error) {
	step, ok := g.stages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStageNotFound, id)
	}
	return step, nil
}

// Router returns the router attached to a stage, if any.
func (g *Graph) Router(id domain.StageID) (Router, bool) {
	r, ok := g.routes[id]
	return r, ok
}

// Route resolves the successor of stage id given the merged state.
// Stages without a router, and unknown stages, resolve to End.
func (g *Graph) Route(state domain.State, id domain.StageID) domain.StageID {
	r, ok := g.routes[id]
	if !ok {
		return domain.End
	}
	return r.Route(state)
}

// Entry returns the first stage of every run.
func (g *Graph) Entry() domain.StageID { return g.entry }

// Schema returns the state schema the graph was built for.
func (g *Graph) Schema() *schema.Schema { return g.schema }

// Stages returns the registered stage identifiers in sorted order.
func (g *Graph) Stages() []domain.StageID {
	return append([]domain.StageID(nil), g.order...)
}

// NewState builds an initial state for this graph's schema.
func (g *Graph) NewState(initial map[string]any) (domain.State, error) {
	return domain.NewState(g.schema, initial)
}
