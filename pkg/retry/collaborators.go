package retry

import (
	"context"

	"github.com/aretw0/relay/pkg/ports"
)

type generator struct {
	next   ports.Generator
	policy Policy
}

// Generator wraps a generator so that transient failures are retried.
// The result stays tunable when next is.
func Generator(next ports.Generator, p Policy) ports.Generator {
	return &generator{next: next, policy: p}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return Do(ctx, g.policy, func(ctx context.Context) (string, error) {
		return g.next.Generate(ctx, prompt)
	})
}

func (g *generator) WithTemperature(t float64) ports.Generator {
	return &generator{next: ports.Tune(g.next, t), policy: g.policy}
}

type retriever struct {
	next   ports.Retriever
	policy Policy
}

// Retriever wraps a retriever so that transient failures are retried.
func Retriever(next ports.Retriever, p Policy) ports.Retriever {
	return &retriever{next: next, policy: p}
}

func (r *retriever) Fetch(ctx context.Context, query string, limit int) ([]ports.Record, error) {
	return Do(ctx, r.policy, func(ctx context.Context) ([]ports.Record, error) {
		return r.next.Fetch(ctx, query, limit)
	})
}

type topics struct {
	next   ports.TopicSource
	policy Policy
}

// Topics wraps a topic source so that transient failures are retried.
func Topics(next ports.TopicSource, p Policy) ports.TopicSource {
	return &topics{next: next, policy: p}
}

func (t *topics) Trending(ctx context.Context, timeframe string, limit int) ([]string, error) {
	return Do(ctx, t.policy, func(ctx context.Context) ([]string, error) {
		return t.next.Trending(ctx, timeframe, limit)
	})
}
