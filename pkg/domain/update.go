package domain

import (
	"sort"

	"github.com/aretw0/relay/pkg/schema"
)

// Update is the partial result of a stage: the subset of fields it writes.
// Keys absent from an Update leave the corresponding fields untouched.
type Update map[string]any

// Merge returns a new State with u applied. Overwrite fields take the update
// value; accumulator fields get the update's items appended. Keys the schema
// does not declare are skipped, so Merge never fails. The receiver is unchanged.
func (s State) Merge(u Update) State {
	values := make(map[string]any, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}

	for key, v := range u {
		f, ok := s.schema.Field(key)
		if !ok {
			continue
		}
		if f.Kind == schema.Accumulate {
			prev, _ := values[key].([]any)
			fresh := make([]any, len(prev), len(prev)+1)
			copy(fresh, prev)
			values[key] = appendItems(fresh, v)
			continue
		}
		values[key] = cloneValue(v)
	}

	return State{schema: s.schema, values: values}
}

// Unknown lists the keys of u that the state's schema does not declare.
func (s State) Unknown(u Update) []string {
	var keys []string
	for key := range u {
		if _, ok := s.schema.Field(key); !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
