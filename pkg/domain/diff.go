package domain

import (
	"reflect"

	"github.com/aretw0/relay/pkg/schema"
)

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for progress streams and audit logs.
type StateDiff struct {
	// Changed contains overwrite fields whose value differs.
	Changed map[string]any `json:"changed,omitempty"`

	// Appended contains the items added to each accumulator field.
	// Accumulators are append-only, so the old sequence is always a prefix.
	Appended map[string][]any `json:"appended,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil || newState.IsZero() {
		return nil
	}

	diff := &StateDiff{
		Changed:  make(map[string]any),
		Appended: make(map[string][]any),
	}

	for name, f := range newState.schema.Fields {
		newVal := newState.values[name]

		if f.Kind == schema.Accumulate {
			var oldLen int
			if oldState != nil {
				oldLen = len(oldState.List(name))
			}
			items := newState.List(name)
			if len(items) > oldLen {
				diff.Appended[name] = items[oldLen:]
			}
			continue
		}

		if oldState == nil {
			diff.Changed[name] = cloneValue(newVal)
			continue
		}
		if oldVal, ok := oldState.values[name]; !ok || !reflect.DeepEqual(oldVal, newVal) {
			diff.Changed[name] = cloneValue(newVal)
		}
	}

	// Optimization: return nil maps so omitempty removes the keys.
	if len(diff.Changed) == 0 {
		diff.Changed = nil
	}
	if len(diff.Appended) == 0 {
		diff.Appended = nil
	}
	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d == nil || (len(d.Changed) == 0 && len(d.Appended) == 0)
}
