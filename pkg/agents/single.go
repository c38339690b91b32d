package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/aretw0/relay/pkg/tools"
)

// Single answers a task on its own: it consults the topic source, the retriever
// and the sentiment lexicon, then asks the generator for a concise summary.
type Single struct {
	Topics    ports.TopicSource
	Retriever ports.Retriever
	Generator ports.Generator
	Limit     int // trending topics to consult; defaults to 5
	Logger    *slog.Logger
}

func (a *Single) Writes() []string {
	return []string{FieldSingleResult, FieldMessages, FieldSingleNext, FieldStatus}
}

func (a *Single) Run(ctx context.Context, s domain.State) domain.Update {
	logger := nopLogger(a.Logger).With("agent", "Assistant")
	logger.Info("Processing task")

	limit := a.Limit
	if limit <= 0 {
		limit = 5
	}

	task := s.String(FieldSingleTask)
	evidence, err := a.gather(ctx, limit)
	if err != nil {
		return a.fail(logger, s, err)
	}

	prompt := fmt.Sprintf(`You are a research assistant. Complete this task:

%s

Use the available tools to:
1. Fetch trending topics
2. Search for relevant articles
3. Analyze the sentiment

%s
Then provide a concise summary (200-300 words).`, task, evidence)

	result, err := a.Generator.Generate(ctx, prompt)
	if err != nil {
		return a.fail(logger, s, err)
	}
	result = strings.TrimSpace(result)

	logger.Info("Task complete", "length", len(result))
	return domain.Update{
		FieldSingleResult: result,
		FieldMessages:     map[string]any{"role": "assistant", "content": result},
		FieldSingleNext:   DecideEnd,
		FieldStatus:       "complete",
	}
}

// gather runs the tools and renders what they found as prompt context.
func (a *Single) gather(ctx context.Context, limit int) (string, error) {
	topics, err := a.Topics.Trending(ctx, "week", limit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Trending topics:\n%s\n\n", numbered(topics))
	if len(topics) == 0 {
		return b.String(), nil
	}

	records, err := a.Retriever.Fetch(ctx, topics[0], 3)
	if err != nil {
		return "", err
	}
	records = tools.SortRecords(tools.FilterRecords(records))

	summaries := make([]string, 0, len(records))
	b.WriteString("Articles:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- %s (%s)\n", r.Title, r.Source)
		summaries = append(summaries, r.Summary)
	}

	sentiment := tools.AnalyzeSentiment(strings.Join(summaries, " "))
	fmt.Fprintf(&b, "\nSentiment: %s (%d/100)\n", sentiment.Sentiment, sentiment.Score)
	return b.String(), nil
}

func (a *Single) fail(logger *slog.Logger, s domain.State, err error) domain.Update {
	logger.Error("Task failed", "error", err)
	u := degrade(s, DecideEnd, "process error: "+err.Error())
	u[FieldSingleResult] = "Error: " + err.Error()
	u[FieldMessages] = map[string]any{"role": "assistant", "content": "Error: " + err.Error()}
	return u
}
