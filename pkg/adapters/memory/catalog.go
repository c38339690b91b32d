package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/relay/pkg/ports"
)

// DefaultTopics is the canned trending list served by Catalog.
var DefaultTopics = []string{
	"AI Agents and LangGraph 1.0",
	"Multi-Agent System Architectures",
	"OpenAI Operator Platform",
	"Anthropic Claude 4 Models",
	"Production LLM Deployment",
	"RAG Systems Optimization",
	"Agentic Workflow Patterns",
	"LLM Cost Optimization",
}

// Catalog is a simulated topic source and article retriever.
// It serves deterministic data and is used for demos, offline runs and tests.
type Catalog struct {
	topics []string
	delay  time.Duration
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithTopics replaces the trending list.
func WithTopics(topics ...string) CatalogOption {
	return func(c *Catalog) {
		c.topics = append([]string(nil), topics...)
	}
}

// WithLatency simulates network latency on every call.
func WithLatency(d time.Duration) CatalogOption {
	return func(c *Catalog) {
		c.delay = d
	}
}

// NewCatalog creates a catalog serving DefaultTopics.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{topics: DefaultTopics}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trending returns up to limit topics. Timeframe must be day, week or month.
func (c *Catalog) Trending(ctx context.Context, timeframe string, limit int) ([]string, error) {
	switch timeframe {
	case "day", "week", "month":
	default:
		return nil, fmt.Errorf("unsupported timeframe %q", timeframe)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	n := min(max(limit, 0), len(c.topics))
	return append([]string(nil), c.topics[:n]...), nil
}

type articleTemplate struct {
	title, path, summary, source, date string
}

var articleTemplates = []articleTemplate{
	{"Deep Dive into %s", "articles", "Comprehensive analysis of %s covering latest developments, key players, and future implications.", "Tech Blog", "2025-11-01"},
	{"%s: Best Practices and Patterns", "guides", "Practical guide to implementing %s in production environments with real-world examples.", "Engineering Digest", "2025-10-28"},
	{"The Future of %s", "trends", "Expert predictions and emerging trends in %s for 2025 and beyond.", "Tech Trends", "2025-10-25"},
}

// Fetch returns up to limit articles about query.
func (c *Catalog) Fetch(ctx context.Context, query string, limit int) ([]ports.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	slug := strings.ReplaceAll(strings.ToLower(query), " ", "-")
	n := min(max(limit, 0), len(articleTemplates))
	records := make([]ports.Record, 0, n)
	for _, tpl := range articleTemplates[:n] {
		ts, _ := time.Parse(time.DateOnly, tpl.date)
		records = append(records, ports.Record{
			Title:     fmt.Sprintf(tpl.title, query),
			Summary:   fmt.Sprintf(tpl.summary, query),
			Source:    tpl.source,
			URL:       fmt.Sprintf("https://example.com/%s/%s", tpl.path, slug),
			Timestamp: ts,
		})
	}
	return records, nil
}

func (c *Catalog) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
