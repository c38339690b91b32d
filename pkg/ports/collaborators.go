package ports

import (
	"context"
	"time"
)

// Generator turns a prompt into text. Language models are the usual implementation.
// Implementations should mark retryable failures with domain.Transient.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Record is one retrieved document.
type Record struct {
	Title     string    `json:"title" yaml:"title"`
	Summary   string    `json:"summary" yaml:"summary"`
	Source    string    `json:"source" yaml:"source"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Retriever fetches up to limit records matching a query.
type Retriever interface {
	Fetch(ctx context.Context, query string, limit int) ([]Record, error)
}

// TopicSource lists trending topics for a timeframe such as "day" or "week".
type TopicSource interface {
	Trending(ctx context.Context, timeframe string, limit int) ([]string, error)
}

// Tunable is implemented by generators that can produce a variant sampling at
// a different temperature.
type Tunable interface {
	WithTemperature(t float64) Generator
}

// Tune returns g at temperature t when g is Tunable, and g unchanged otherwise.
func Tune(g Generator, t float64) Generator {
	if tg, ok := g.(Tunable); ok {
		return tg.WithTemperature(t)
	}
	return g
}
