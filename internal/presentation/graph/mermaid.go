package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
)

// Overlay marks the stages a run went through.
type Overlay struct {
	Visited []string
	// Current is the stage the run stopped at, if it did not reach End.
	Current string
}

// GenerateMermaid produces a Mermaid flowchart from a graph description.
// Shapes:
// - Entry: ((Circle))
// - End: ([Stadium])
// - Default: [Rectangle]
// Edges are labelled with the routing decision that selects them.
func GenerateMermaid(desc graph.Description, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	endUsed := false
	for _, stage := range desc.Stages {
		id := sanitizeMermaidID(string(stage.ID))

		opener, closer := "[", "]"
		if stage.ID == desc.Entry {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, stage.ID, closer)

		for _, e := range stage.Edges {
			if e.To == domain.End {
				endUsed = true
			}
			to := sanitizeMermaidID(string(e.To))
			if e.Label == "" {
				fmt.Fprintf(&sb, "    %s --> %s\n", id, to)
				continue
			}
			label := strings.ReplaceAll(e.Label, "\"", "'")
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", id, label, to)
		}
	}
	if endUsed {
		fmt.Fprintf(&sb, "    %s([\"%s\"])\n", sanitizeMermaidID(string(domain.End)), domain.End)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, v := range overlay.Visited {
			id := sanitizeMermaidID(v)
			if id != "" && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
