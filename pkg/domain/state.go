package domain

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/relay/pkg/schema"
)

// State is an immutable snapshot of a pipeline's shared fields.
// Readers return copies, so a stage can only change the shared state through
// the Update it returns.
type State struct {
	schema *schema.Schema
	values map[string]any
}

// NewState validates the initial values against the schema and fills every
// missing field with its neutral value.
func NewState(s *schema.Schema, initial map[string]any) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("state requires a schema")
	}
	if err := s.Validate(initial); err != nil {
		return State{}, fmt.Errorf("invalid initial state: %w", err)
	}

	values := make(map[string]any, len(s.Fields))
	for _, name := range s.Names() {
		f := s.Fields[name]
		v, ok := initial[name]
		switch {
		case !ok:
			values[name] = f.Zero()
		case f.Kind == schema.Accumulate:
			values[name] = appendItems(nil, v)
		default:
			values[name] = cloneValue(v)
		}
	}
	return State{schema: s, values: values}, nil
}

// Schema returns the schema the state was built with.
func (s State) Schema() *schema.Schema {
	return s.schema
}

// IsZero reports whether the state was never initialised.
func (s State) IsZero() bool {
	return s.schema == nil
}

// Get returns a copy of a field value.
func (s State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// String returns a string field, or "" when absent or of another type.
func (s State) String(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Int returns an integer field, converting whole JSON numbers.
func (s State) Int(key string) int {
	switch v := s.values[key].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Float returns a numeric field as float64.
func (s State) Float(key string) float64 {
	switch v := s.values[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Bool returns a boolean field.
func (s State) Bool(key string) bool {
	v, _ := s.values[key].(bool)
	return v
}

// Strings returns a sequence field as strings. Non-string items are skipped.
func (s State) Strings(key string) []string {
	switch v := s.values[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// List returns a sequence field as a fresh slice.
func (s State) List(key string) []any {
	return appendItems(nil, s.values[key])
}

// Map returns a map field as a fresh map.
func (s State) Map(key string) map[string]any {
	switch v := s.values[key].(type) {
	case map[string]any:
		return cloneValue(v).(map[string]any)
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out
	default:
		return nil
	}
}

// Route returns the current routing decision.
func (s State) Route() string {
	if s.schema == nil {
		return ""
	}
	return s.String(s.schema.Route)
}

// Status returns the current status diagnostic.
func (s State) Status() string {
	if s.schema == nil {
		return ""
	}
	return s.String(s.schema.Status)
}

// Snapshot returns a deep copy of every field.
func (s State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = cloneValue(v)
	}
	return out
}

// MarshalJSON serializes the field values.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Degrade builds the update a stage returns when it absorbs a failure:
// the diagnostic goes to the status field and the route to the fallback.
func (s State) Degrade(fallback StageID, diagnostic string) Update {
	if s.schema == nil {
		return Update{}
	}
	return Update{
		s.schema.Route:  string(fallback),
		s.schema.Status: diagnostic,
	}
}

// appendItems appends v to dst. Sequences contribute each element; any other
// value contributes itself as a single item.
func appendItems(dst []any, v any) []any {
	if dst == nil {
		dst = []any{}
	}
	if v == nil {
		return dst
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			dst = append(dst, cloneValue(rv.Index(i).Interface()))
		}
		return dst
	}
	return append(dst, cloneValue(v))
}

// cloneValue deep-copies the container shapes state values take after JSON
// decoding or stage construction. Scalars are returned as-is.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			out[k] = item
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item).(map[string]any)
		}
		return out
	default:
		return v
	}
}
