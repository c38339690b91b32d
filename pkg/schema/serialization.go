package schema

import (
	"encoding/json"
	"fmt"
)

type fieldJSON struct {
	Type     string `json:"type" yaml:"type"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

type schemaJSON struct {
	Route  string               `json:"route"`
	Status string               `json:"status"`
	Fields map[string]fieldJSON `json:"fields"`
}

// MarshalJSON serializes the schema with type names instead of validators.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	raw := schemaJSON{Route: s.Route, Status: s.Status, Fields: make(map[string]fieldJSON, len(s.Fields))}
	for key, f := range s.Fields {
		if f.Type == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw.Fields[key] = fieldJSON{Type: f.Type.Name(), Kind: f.Kind, Required: f.Required}
	}

	return json.Marshal(raw)
}

// UnmarshalJSON deserializes and checks a schema produced by MarshalJSON.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}

	var raw schemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := make(map[string]Field, len(raw.Fields))
	for key, fj := range raw.Fields {
		f, err := ParseField(fj.Type, string(fj.Kind), fj.Required)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		fields[key] = f
	}

	parsed, err := New(raw.Route, raw.Status, fields)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}
