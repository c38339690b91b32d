// Package compiler turns YAML pipeline definitions into validated graphs.
package compiler

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition is the declarative form of a pipeline.
type Definition struct {
	Name     string              `mapstructure:"name"`
	Entry    string              `mapstructure:"entry"`
	MaxSteps int                 `mapstructure:"max_steps"`
	Schema   SchemaDefinition    `mapstructure:"schema"`
	Stages   map[string]StageDef `mapstructure:"stages"`
}

// SchemaDefinition declares the state fields and names the routing and status fields.
type SchemaDefinition struct {
	Route  string                     `mapstructure:"route"`
	Status string                     `mapstructure:"status"`
	Fields map[string]FieldDefinition `mapstructure:"fields"`
}

// FieldDefinition declares one state field. Kind defaults to overwrite.
type FieldDefinition struct {
	Type     string `mapstructure:"type"`
	Kind     string `mapstructure:"kind"`
	Required bool   `mapstructure:"required"`
}

// StageDef binds a stage to a registered step. Routes maps routing decisions
// to stages; Next is an unconditional successor. A stage with neither is terminal.
type StageDef struct {
	Step   string            `mapstructure:"step"`
	Params map[string]any    `mapstructure:"params"`
	Routes map[string]string `mapstructure:"routes"`
	Next   string            `mapstructure:"next"`
}

// Parse decodes a YAML pipeline definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("pipeline definition is empty")
	}

	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	return &def, nil
}
