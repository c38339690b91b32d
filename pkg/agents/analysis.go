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

// Analyst detects recurring patterns in the topics and asks the generator for insights.
// With Sentiment set it hands over to the sentiment stage instead of the writer.
type Analyst struct {
	Generator ports.Generator
	Sentiment bool
	Logger    *slog.Logger
}

func (a *Analyst) Writes() []string {
	return []string{FieldAnalysis, FieldPatterns, FieldMessages, FieldNext, FieldStatus}
}

func (a *Analyst) Run(ctx context.Context, s domain.State) domain.Update {
	logger := nopLogger(a.Logger).With("agent", "Analyst")
	logger.Info("Analyzing data")

	patterns := tools.DetectPatterns(s.Strings(FieldTopics))
	bullets := make([]string, len(patterns))
	for i, p := range patterns {
		bullets[i] = "- " + p
	}

	prompt := fmt.Sprintf(`Analyze this research data:

%s

Common Patterns:
%s

Provide analysis in this format:

**Key Insights:**
(3 main insights)

**Market Implications:**
(2 implications)

**Emerging Trends:**
(2 trends to watch)

Keep it concise.`, s.String(FieldNotes), strings.Join(bullets, "\n"))

	analysis, err := a.Generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("Analysis failed", "error", err)
		u := degrade(s, DecideWriter, "analysis error: "+err.Error())
		u[FieldAnalysis] = "Analysis error: " + err.Error()
		return u
	}

	next := DecideWriter
	if a.Sentiment {
		next = DecideSentiment
	}

	logger.Info("Analysis complete", "patterns", len(patterns))
	return domain.Update{
		FieldAnalysis: strings.TrimSpace(analysis),
		FieldPatterns: patterns,
		FieldMessages: message("Analyst", "Analysis complete"),
		FieldNext:     next,
		FieldStatus:   "analysis_complete",
	}
}

// SentimentScorer scores the research notes with the keyword lexicon.
type SentimentScorer struct {
	Logger *slog.Logger
}

func (a *SentimentScorer) Writes() []string {
	return []string{FieldSentiment, FieldMessages, FieldNext, FieldStatus}
}

func (a *SentimentScorer) Run(_ context.Context, s domain.State) domain.Update {
	logger := nopLogger(a.Logger).With("agent", "Sentiment")

	result := tools.NeutralSentiment()
	if notes := s.String(FieldNotes); strings.TrimSpace(notes) != "" {
		result = tools.AnalyzeSentiment(notes)
	}

	logger.Info("Sentiment scored", "sentiment", result.Sentiment, "score", result.Score)
	return domain.Update{
		FieldSentiment: result.Map(),
		FieldMessages:  message("Sentiment", fmt.Sprintf("Overall sentiment: %s (%d/100)", result.Sentiment, result.Score)),
		FieldNext:      DecideWriter,
		FieldStatus:    "sentiment_complete",
	}
}
