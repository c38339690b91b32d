package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes_Validate(t *testing.T) {
	even := Custom("even", func(v any) error {
		if i, ok := v.(int); !ok || i%2 != 0 {
			return errors.New("not an even int")
		}
		return nil
	})

	tests := []struct {
		name  string
		typ   Type
		value any
		ok    bool
	}{
		{"string", String(), "hello", true},
		{"empty string", String(), "", true},
		{"int as string", String(), 42, false},
		{"nil as string", String(), nil, false},

		{"int", Int(), 42, true},
		{"int64", Int(), int64(42), true},
		{"whole float as int", Int(), float64(42), true},
		{"fractional float as int", Int(), 42.5, false},
		{"numeric string as int", Int(), "42", false},

		{"float", Float(), 3.14, true},
		{"float32", Float(), float32(3.14), true},
		{"int as float", Float(), 42, true},
		{"string as float", Float(), "3.14", false},

		{"bool", Bool(), false, true},
		{"int as bool", Bool(), 1, false},

		{"any string", Any(), "x", true},
		{"any nil", Any(), nil, false},

		{"generic map", Map(), map[string]any{"a": 1}, true},
		{"typed map", Map(), map[string]string{"a": "b"}, true},
		{"int keys", Map(), map[int]string{1: "b"}, false},

		{"string slice", Slice(String()), []string{"a", "b"}, true},
		{"any slice of strings", Slice(String()), []any{"a", "b"}, true},
		{"ints as strings", Slice(String()), []int{1, 2}, false},
		{"mixed slice", Slice(Int()), []any{1, "2", 3}, false},
		{"not a slice", Slice(String()), "a", false},
		{"nested", Slice(Slice(String())), [][]string{{"a"}, {"b", "c"}}, true},

		{"custom even", even, 4, true},
		{"custom odd", even, 3, false},
		{"custom wrong type", even, "2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTypes_SliceErrorNamesElement(t *testing.T) {
	err := Slice(Int()).Validate([]any{1, 2, "three"})
	assert.ErrorContains(t, err, "element 2")
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"string", "int", "float", "bool", "any", "map", "[map]", "[string]", "[[string]]"} {
		typ, err := ParseType(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, typ.Name())
	}
	for _, name := range []string{"invalid", "[invalid]", "[]", "[string", "string]"} {
		_, err := ParseType(name)
		assert.Error(t, err, name)
	}
}

func TestZeroValues(t *testing.T) {
	assert.Equal(t, "", String().Zero())
	assert.Equal(t, 0, Int().Zero())
	assert.Equal(t, 0.0, Float().Zero())
	assert.Equal(t, false, Bool().Zero())
	assert.Nil(t, Any().Zero())
	assert.Equal(t, []any{}, Slice(String()).Zero())
	assert.Equal(t, []any{}, List(String()).Zero())

	// Map zeros must not alias each other.
	a := Map().Zero().(map[string]any)
	a["k"] = 1
	assert.Empty(t, Map().Zero())
}

func TestParseField(t *testing.T) {
	f, err := ParseField("[string]", "accumulate", true)
	require.NoError(t, err)
	assert.Equal(t, Accumulate, f.Kind)
	assert.True(t, f.Required)
	assert.Equal(t, "[string]", f.Type.Name())

	f, err = ParseField("string", "", false)
	require.NoError(t, err)
	assert.Equal(t, Overwrite, f.Kind, "empty kind defaults to overwrite")

	_, err = ParseField("string", "merge", false)
	assert.Error(t, err)
	_, err = ParseField("invalid", "overwrite", false)
	assert.Error(t, err)
}
