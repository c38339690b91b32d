package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Reply is one scripted generator response.
type Reply struct {
	Text string
	Err  error
}

// Generator is a deterministic ports.Generator.
// Scripted replies are returned in order; once they run out, the generator
// produces an offline draft derived from the prompt.
type Generator struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// NewGenerator creates a generator with the given scripted replies.
func NewGenerator(replies ...Reply) *Generator {
	return &Generator{replies: replies}
}

// Generate returns the next scripted reply or an offline draft.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)
	if len(g.replies) > 0 {
		r := g.replies[0]
		g.replies = g.replies[1:]
		return r.Text, r.Err
	}
	return offlineDraft(prompt), nil
}

// Prompts returns every prompt received so far.
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// offlineDraft builds a readable placeholder from the prompt's non-empty lines.
func offlineDraft(prompt string) string {
	var lines []string
	for _, l := range strings.Split(prompt, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return "(offline) empty prompt"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "(offline) %s\n", lines[0])
	for _, l := range lines[1:min(len(lines), 8)] {
		fmt.Fprintf(&b, "\n- %s", l)
	}
	return b.String()
}
