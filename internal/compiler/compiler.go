package compiler

import (
	"fmt"
	"os"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/aretw0/relay/pkg/schema"
)

// Pipeline is a compiled definition.
type Pipeline struct {
	Name     string
	MaxSteps int
	Graph    *graph.Graph
}

// Compile resolves every stage through reg and builds the graph.
// All construction errors of graph.Build are returned unchanged.
func Compile(def *Definition, reg *registry.Registry) (*Pipeline, error) {
	fields := make(map[string]schema.Field, len(def.Schema.Fields))
	for name, fd := range def.Schema.Fields {
		f, err := schema.ParseField(fd.Type, fd.Kind, fd.Required)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", graph.ErrConstruction, name, err)
		}
		fields[name] = f
	}
	s, err := schema.New(def.Schema.Route, def.Schema.Status, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", graph.ErrConstruction, err)
	}

	stages := make(map[domain.StageID]domain.Step, len(def.Stages))
	routes := make(map[domain.StageID]graph.Router)
	for name, sd := range def.Stages {
		id := domain.StageID(name)
		step, err := reg.Resolve(sd.Step, sd.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: stage %q: %w", graph.ErrConstruction, name, err)
		}
		stages[id] = step

		switch {
		case len(sd.Routes) > 0 && sd.Next != "":
			return nil, &graph.InvalidStageError{Stage: id, Reason: "routes and next are mutually exclusive"}
		case len(sd.Routes) > 0:
			cases := make(map[string]domain.StageID, len(sd.Routes))
			for decision, target := range sd.Routes {
				cases[decision] = domain.StageID(target)
			}
			routes[id] = graph.Table(cases)
		case sd.Next != "":
			routes[id] = graph.Always(domain.StageID(sd.Next))
		}
	}

	g, err := graph.Build(s, stages, routes, domain.StageID(def.Entry))
	if err != nil {
		return nil, err
	}
	return &Pipeline{Name: def.Name, MaxSteps: def.MaxSteps, Graph: g}, nil
}

// CompileFile parses and compiles the pipeline stored at path.
func CompileFile(path string, reg *registry.Registry) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Compile(def, reg)
}
