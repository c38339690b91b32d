package dsl

import (
	"context"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
)

// StageBuilder provides a fluent API for configuring a stage.
type StageBuilder struct {
	id      domain.StageID
	step    domain.Step
	writes  []string
	cases   map[string]domain.StageID
	fixed   domain.StageID
	builder *Builder
}

// Do sets the step executed by the stage.
func (s *StageBuilder) Do(step domain.Step) *StageBuilder {
	s.step = step
	return s
}

// DoFunc sets a plain function as the stage's step.
func (s *StageBuilder) DoFunc(fn func(ctx context.Context, state domain.State) domain.Update) *StageBuilder {
	s.step = domain.StepFunc(fn)
	return s
}

// Writes declares the fields the step may write. They are checked against
// the schema when the graph is built.
func (s *StageBuilder) Writes(fields ...string) *StageBuilder {
	s.writes = append(s.writes, fields...)
	return s
}

// Branch routes the decision value to the target stage.
// Decisions with no branch resolve to END.
func (s *StageBuilder) Branch(decision string, target domain.StageID) *StageBuilder {
	if s.cases == nil {
		s.cases = make(map[string]domain.StageID)
	}
	s.cases[decision] = target
	return s
}

// Go adds an unconditional transition to the target stage.
func (s *StageBuilder) Go(target domain.StageID) *StageBuilder {
	s.fixed = target
	return s
}

// Terminal marks the stage as the last one: it always proceeds to END.
func (s *StageBuilder) Terminal() *StageBuilder {
	s.cases = nil
	s.fixed = ""
	return s
}

// Add is a shortcut to start the next stage on the same builder.
func (s *StageBuilder) Add(id domain.StageID) *StageBuilder {
	return s.builder.Add(id)
}

// Build is a shortcut to compile the graph from the last configured stage.
func (s *StageBuilder) Build() (*graph.Graph, error) {
	return s.builder.Build()
}
