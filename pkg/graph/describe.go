package graph

import "github.com/aretw0/relay/pkg/domain"

// Description is a read-only view of a graph for renderers and APIs.
type Description struct {
	Entry  domain.StageID     `json:"entry"`
	Stages []StageDescription `json:"stages"`
}

// StageDescription lists a stage and its outgoing edges.
type StageDescription struct {
	ID       domain.StageID `json:"id"`
	Edges    []Edge         `json:"edges"`
	Terminal bool           `json:"terminal,omitempty"`
}

// Describe returns the stages in sorted order with their edges.
// Terminal stages get a single unlabelled edge to End.
func (g *Graph) Describe() Description {
	desc := Description{Entry: g.entry}
	for _, id := range g.order {
		sd := StageDescription{ID: id}
		if r, ok := g.routes[id]; ok {
			sd.Edges = r.Edges()
		} else {
			sd.Terminal = true
			sd.Edges = []Edge{{To: domain.End}}
		}
		desc.Stages = append(desc.Stages, sd)
	}
	return desc
}

// Unreachable lists stages that cannot be reached from the entry.
func (g *Graph) Unreachable() []domain.StageID {
	visited := map[domain.StageID]bool{}
	queue := []domain.StageID{g.entry}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] || current == domain.End {
			continue
		}
		visited[current] = true

		r, ok := g.routes[current]
		if !ok {
			continue
		}
		for _, e := range r.Edges() {
			if !visited[e.To] {
				queue = append(queue, e.To)
			}
		}
	}

	var out []domain.StageID
	for _, id := range g.order {
		if !visited[id] {
			out = append(out, id)
		}
	}
	return out
}
