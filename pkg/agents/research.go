package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
)

// Researcher gathers trending topics and asks the generator why they trend.
type Researcher struct {
	Topics    ports.TopicSource
	Generator ports.Generator
	Timeframe string // day, week or month; defaults to week
	Limit     int    // defaults to 5
	Logger    *slog.Logger
}

func (r *Researcher) Writes() []string {
	return []string{FieldNotes, FieldTopics, FieldMessages, FieldNext, FieldStatus}
}

func (r *Researcher) Run(ctx context.Context, s domain.State) domain.Update {
	logger := nopLogger(r.Logger).With("agent", "Researcher")
	logger.Info("Starting research")

	timeframe := r.Timeframe
	if timeframe == "" {
		timeframe = "week"
	}
	limit := r.Limit
	if limit <= 0 {
		limit = 5
	}

	topics, err := r.Topics.Trending(ctx, timeframe, limit)
	if err != nil {
		return r.fail(logger, s, err)
	}

	task := s.String(FieldTask)
	if task == "" {
		task = "Research trending topics"
	}
	list := numbered(topics)

	prompt := fmt.Sprintf(`You are a research specialist.

Task: %s

I've found these trending topics:
%s

Create a brief overview of why these topics are trending (2-3 sentences total).`, task, list)

	overview, err := r.Generator.Generate(ctx, prompt)
	if err != nil {
		return r.fail(logger, s, err)
	}

	notes := fmt.Sprintf("## Trending Topics\n\n%s\n\n## Overview\n%s", list, strings.TrimSpace(overview))

	logger.Info("Research complete", "topics", len(topics))
	return domain.Update{
		FieldNotes:    notes,
		FieldTopics:   topics,
		FieldMessages: message("Researcher", fmt.Sprintf("Found %d trending topics", len(topics))),
		FieldNext:     DecideCollector,
		FieldStatus:   "research_complete",
	}
}

func (r *Researcher) fail(logger *slog.Logger, s domain.State, err error) domain.Update {
	logger.Error("Research failed", "error", err)
	u := degrade(s, DecideAnalyst, "research error: "+err.Error())
	u[FieldNotes] = "Error in research: " + err.Error()
	return u
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}

// Collector retrieves articles for the leading topics and appends them to the notes.
type Collector struct {
	Retriever ports.Retriever
	MaxTopics int // defaults to 3
	PerTopic  int // defaults to 2
	Logger    *slog.Logger
}

func (c *Collector) Writes() []string {
	return []string{FieldNotes, FieldArticles, FieldMessages, FieldNext, FieldStatus}
}

func (c *Collector) Run(ctx context.Context, s domain.State) domain.Update {
	logger := nopLogger(c.Logger).With("agent", "Collector")
	logger.Info("Collecting data")

	maxTopics := c.MaxTopics
	if maxTopics <= 0 {
		maxTopics = 3
	}
	perTopic := c.PerTopic
	if perTopic <= 0 {
		perTopic = 2
	}

	topics := s.Strings(FieldTopics)
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}

	var records []ports.Record
	for _, topic := range topics {
		found, err := c.Retriever.Fetch(ctx, topic, perTopic)
		if err != nil {
			logger.Error("Collection failed", "topic", topic, "error", err)
			return degrade(s, DecideAnalyst, "collection error: "+err.Error())
		}
		records = append(records, found...)
	}

	blocks := make([]string, 0, len(records))
	articles := make([]any, 0, len(records))
	for _, r := range records {
		blocks = append(blocks, fmt.Sprintf("**%s**\n%s\nSource: %s", r.Title, r.Summary, r.Source))
		articles = append(articles, RecordToMap(r))
	}

	notes := s.String(FieldNotes) + "\n\n## Detailed Research Data\n\n" + strings.Join(blocks, "\n\n")

	logger.Info("Data collection complete", "articles", len(records))
	return domain.Update{
		FieldNotes:    notes,
		FieldArticles: articles,
		FieldMessages: message("Collector", fmt.Sprintf("Collected %d articles", len(records))),
		FieldNext:     DecideAnalyst,
		FieldStatus:   "collection_complete",
	}
}

// RecordToMap converts a record for storage in a state field.
func RecordToMap(r ports.Record) map[string]any {
	m := map[string]any{
		"title":   r.Title,
		"summary": r.Summary,
		"source":  r.Source,
		"url":     r.URL,
	}
	if !r.Timestamp.IsZero() {
		m["date"] = r.Timestamp.Format("2006-01-02")
	}
	return m
}
