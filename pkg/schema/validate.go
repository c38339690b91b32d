package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// ErrInvalidSchema is returned when a schema cannot describe a runnable state.
var ErrInvalidSchema = errors.New("invalid schema")

// Schema declares the fields of a shared state and which of them carry the
// routing decision and the status diagnostic.
//
//	s, err := schema.New("next", "status", map[string]schema.Field{
//	    "next":     schema.Value(schema.String()),
//	    "status":   schema.Value(schema.String()),
//	    "messages": schema.List(schema.Any()),
//	})
type Schema struct {
	Fields map[string]Field
	Route  string
	Status string
}

// New creates a schema and checks it.
func New(route, status string, fields map[string]Field) (*Schema, error) {
	s := &Schema{Fields: fields, Route: route, Status: status}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for package-level schemas.
func MustNew(route, status string, fields map[string]Field) *Schema {
	s, err := New(route, status, fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Check verifies that the routing and status fields are declared overwrite strings
// and that every field has a type.
func (s *Schema) Check() error {
	for _, name := range s.Names() {
		if s.Fields[name].Type == nil {
			return fmt.Errorf("%w: field %q has no type", ErrInvalidSchema, name)
		}
	}
	for _, special := range []string{s.Route, s.Status} {
		if special == "" {
			return fmt.Errorf("%w: routing and status fields must be named", ErrInvalidSchema)
		}
		f, ok := s.Fields[special]
		if !ok {
			return fmt.Errorf("%w: field %q is not declared", ErrInvalidSchema, special)
		}
		if f.Kind != Overwrite || f.Type.Name() != "string" {
			return fmt.Errorf("%w: field %q must be an overwrite string", ErrInvalidSchema, special)
		}
	}
	return nil
}

// Field looks up a field declaration.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.Fields[name]
	return f, ok
}

// Names returns the declared field names in sorted order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks an initial value map: unknown keys, missing required fields
// and type mismatches are all reported.
func (s *Schema) Validate(data map[string]any) error {
	var errs FieldErrors

	for _, name := range s.Names() {
		f := s.Fields[name]
		value, exists := data[name]
		if !exists {
			if f.Required {
				errs = append(errs, &FieldError{Field: name, Problem: "required"})
			}
			continue
		}
		if err := f.check(value); err != nil {
			errs = append(errs, &FieldError{Field: name, Problem: err.Error(), Got: value})
		}
	}
	errs = append(errs, s.unknown(data)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateFields validates only the keys present in data. Missing keys are fine;
// unknown keys and type mismatches are not.
func (s *Schema) ValidateFields(data map[string]any) error {
	var errs FieldErrors

	for _, key := range sortedKeys(data) {
		f, ok := s.Fields[key]
		if !ok {
			continue
		}
		if err := f.check(data[key]); err != nil {
			errs = append(errs, &FieldError{Field: key, Problem: err.Error(), Got: data[key]})
		}
	}
	errs = append(errs, s.unknown(data)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Schema) unknown(data map[string]any) FieldErrors {
	var errs FieldErrors
	for _, key := range sortedKeys(data) {
		if _, ok := s.Fields[key]; !ok {
			errs = append(errs, &FieldError{Field: key, Problem: "not defined in schema", Got: data[key]})
		}
	}
	return errs
}

// check validates a value against the field. Accumulator fields take a slice
// as a sequence of items, the way merging appends it, and anything else as a
// single item. An item that is itself a slice must therefore be wrapped.
func (f Field) check(value any) error {
	if f.Kind != Accumulate {
		return f.Type.Validate(value)
	}
	if isSequence(value) {
		return Slice(f.Type).Validate(value)
	}
	return f.Type.Validate(value)
}

func isSequence(value any) bool {
	if value == nil {
		return false
	}
	k := reflect.TypeOf(value).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
