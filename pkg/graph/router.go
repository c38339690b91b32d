package graph

import (
	"sort"

	"github.com/aretw0/relay/pkg/domain"
)

// Router chooses the successor of a stage from the merged state.
type Router interface {
	// Route returns the next stage. It never returns an identifier outside Edges, except End.
	Route(state domain.State) domain.StageID
	// Edges lists every possible successor, sorted by label.
	Edges() []Edge
}

// Edge is one possible transition out of a stage.
type Edge struct {
	Label string         `json:"label,omitempty"`
	To    domain.StageID `json:"to"`
}

// TableRouter maps routing decisions to successors.
// Unknown or missing decisions resolve to End.
type TableRouter struct {
	cases map[string]domain.StageID
}

// Table creates a router that reads the routing field and looks it up in cases.
func Table(cases map[string]domain.StageID) *TableRouter {
	c := make(map[string]domain.StageID, len(cases))
	for k, v := range cases {
		c[k] = v
	}
	return &TableRouter{cases: c}
}

func (r *TableRouter) Route(state domain.State) domain.StageID {
	if next, ok := r.cases[state.Route()]; ok {
		return next
	}
	return domain.End
}

func (r *TableRouter) Edges() []Edge {
	edges := make([]Edge, 0, len(r.cases))
	for label, to := range r.cases {
		edges = append(edges, Edge{Label: label, To: to})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Label < edges[j].Label })
	return edges
}

// AlwaysRouter ignores the state and always picks the same successor.
type AlwaysRouter struct {
	next domain.StageID
}

// Always creates a fixed-edge router.
func Always(next domain.StageID) *AlwaysRouter {
	return &AlwaysRouter{next: next}
}

func (r *AlwaysRouter) Route(domain.State) domain.StageID { return r.next }

func (r *AlwaysRouter) Edges() []Edge { return []Edge{{To: r.next}} }
