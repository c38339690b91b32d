package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/aretw0/relay/pkg/schema"
)

func diffSchema() *schema.Schema {
	return schema.MustNew("next", "status", map[string]schema.Field{
		"query":    schema.Value(schema.String()),
		"items":    schema.Value(schema.Slice(schema.String())),
		"messages": schema.List(schema.String()),
		"next":     schema.Value(schema.String()),
		"status":   schema.Value(schema.String()),
	})
}

func TestDiff(t *testing.T) {
	s := diffSchema()
	base, err := NewState(s, map[string]any{"query": "go", "messages": []string{"hi"}})
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}

	tests := []struct {
		name     string
		old      *State
		new      State
		wantDiff *StateDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new:  base,
			wantDiff: &StateDiff{
				Changed: map[string]any{
					"query":  "go",
					"items":  []any{},
					"next":   "",
					"status": "",
				},
				Appended: map[string][]any{"messages": {"hi"}},
			},
		},
		{
			name:     "No Changes",
			old:      &base,
			new:      base.Merge(Update{}),
			wantDiff: nil,
		},
		{
			name: "Overwrite and Append",
			old:  &base,
			new:  base.Merge(Update{"items": []string{"x"}, "messages": "bye", "next": "END"}),
			wantDiff: &StateDiff{
				Changed:  map[string]any{"items": []string{"x"}, "next": "END"},
				Appended: map[string][]any{"messages": {"bye"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newState := tt.new
			got := Diff(tt.old, &newState)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				t.Errorf("Diff() = %#v, want %#v", got, tt.wantDiff)
			}
		})
	}
}

func TestDiff_JSONOmitsEmpty(t *testing.T) {
	s := diffSchema()
	base, _ := NewState(s, nil)
	next := base.Merge(Update{"status": "ok"})

	data, err := json.Marshal(Diff(&base, &next))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"changed":{"status":"ok"}`) {
		t.Errorf("unexpected JSON: %s", out)
	}
	if strings.Contains(out, "appended") {
		t.Errorf("appended should be omitted: %s", out)
	}
}
