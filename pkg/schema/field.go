package schema

import "fmt"

// Kind tells the merge how a field combines with an update.
type Kind string

const (
	// Overwrite fields take the update value when one is present.
	Overwrite Kind = "overwrite"
	// Accumulate fields are append-only sequences; updates add items.
	Accumulate Kind = "accumulate"
)

// Field declares one state field.
// For accumulator fields, Type validates each item rather than the whole sequence.
type Field struct {
	Type     Type
	Kind     Kind
	Required bool
}

// Value declares an overwrite field of the given type.
func Value(t Type) Field {
	return Field{Type: t, Kind: Overwrite}
}

// List declares an accumulator field whose items have the given type.
func List(item Type) Field {
	return Field{Type: item, Kind: Accumulate}
}

// Require marks the field as mandatory in the initial state.
func (f Field) Require() Field {
	f.Required = true
	return f
}

// Zero returns the neutral initial value of the field.
func (f Field) Zero() any {
	if f.Kind == Accumulate {
		return []any{}
	}
	return f.Type.Zero()
}

// ParseKind converts a kind name; the empty string means overwrite.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", Overwrite:
		return Overwrite, nil
	case Accumulate:
		return Accumulate, nil
	default:
		return "", fmt.Errorf("unsupported field kind: %s", s)
	}
}

// ParseField builds a Field from its textual description.
func ParseField(typeStr, kind string, required bool) (Field, error) {
	t, err := ParseType(typeStr)
	if err != nil {
		return Field{}, err
	}
	k, err := ParseKind(kind)
	if err != nil {
		return Field{}, err
	}
	return Field{Type: t, Kind: k, Required: required}, nil
}
