package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type validates the values a field may hold.
type Type interface {
	// Name returns the type as written in pipeline files ("string", "[int]").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
	// Zero returns the neutral value used when a field is not supplied.
	Zero() any
}

// basic is a named type checked by a predicate.
type basic struct {
	name  string
	zero  func() any
	check func(any) error
}

func (b basic) Name() string             { return b.name }
func (b basic) Validate(value any) error { return b.check(value) }
func (b basic) Zero() any                { return b.zero() }

func expect(name string, ok func(any) bool) func(any) error {
	return func(v any) error {
		if !ok(v) {
			return fmt.Errorf("expected %s, got %T", name, v)
		}
		return nil
	}
}

var (
	stringType = basic{
		name:  "string",
		zero:  func() any { return "" },
		check: expect("string", func(v any) bool { _, ok := v.(string); return ok }),
	}
	boolType = basic{
		name:  "bool",
		zero:  func() any { return false },
		check: expect("bool", func(v any) bool { _, ok := v.(bool); return ok }),
	}
	intType = basic{
		name: "int",
		zero: func() any { return 0 },
		check: func(v any) error {
			switch n := v.(type) {
			case int, int8, int16, int32, int64:
				return nil
			case float64:
				// Decoded JSON numbers arrive as float64.
				if n == float64(int64(n)) {
					return nil
				}
				return fmt.Errorf("expected int, got %v", n)
			}
			return fmt.Errorf("expected int, got %T", v)
		},
	}
	floatType = basic{
		name: "float",
		zero: func() any { return 0.0 },
		check: expect("float", func(v any) bool {
			switch v.(type) {
			case float32, float64, int, int8, int16, int32, int64:
				return true
			}
			return false
		}),
	}
	anyType = basic{
		name:  "any",
		zero:  func() any { return nil },
		check: expect("a value", func(v any) bool { return v != nil }),
	}
	mapType = basic{
		name: "map",
		zero: func() any { return map[string]any{} },
		check: expect("map with string keys", func(v any) bool {
			rv := reflect.ValueOf(v)
			return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
		}),
	}
)

var builtins = map[string]Type{}

func init() {
	for _, t := range []basic{stringType, boolType, intType, floatType, anyType, mapType} {
		builtins[t.name] = t
	}
}

// String accepts strings.
func String() Type { return stringType }

// Int accepts Go integers and whole float64 values.
func Int() Type { return intType }

// Float accepts every Go number.
func Float() Type { return floatType }

// Bool accepts booleans.
func Bool() Type { return boolType }

// Any accepts every non-nil value.
func Any() Type { return anyType }

// Map accepts maps with string keys, such as decoded JSON objects.
func Map() Type { return mapType }

// sliceOf validates every element against elem.
type sliceOf struct {
	elem Type
}

// Slice accepts slices or arrays whose elements all satisfy elem.
func Slice(elem Type) Type { return sliceOf{elem: elem} }

func (s sliceOf) Name() string { return "[" + s.elem.Name() + "]" }

func (s sliceOf) Zero() any { return []any{} }

func (s sliceOf) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := s.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Custom creates a named type checked by validate. Its zero value is nil.
func Custom(name string, validate func(any) error) Type {
	return basic{name: name, zero: func() any { return nil }, check: validate}
}

// ParseType resolves a type name from a pipeline file: one of the built-in
// names, or a built-in wrapped in brackets for a slice ("[string]", "[[int]]").
func ParseType(name string) (Type, error) {
	if inner, ok := strings.CutPrefix(name, "["); ok {
		if inner, ok = strings.CutSuffix(inner, "]"); ok && inner != "" {
			elem, err := ParseType(inner)
			if err != nil {
				return nil, err
			}
			return Slice(elem), nil
		}
	}
	if t, ok := builtins[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unsupported type: %s", name)
}
