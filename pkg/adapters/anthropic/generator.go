// Package anthropic provides a ports.Generator backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = anthropic.ModelClaudeSonnet4_20250514

// Usage accumulates token counts across calls.
type Usage struct {
	input  atomic.Int64
	output atomic.Int64
	calls  atomic.Int64
}

// Totals returns the input and output tokens and the number of calls so far.
func (u *Usage) Totals() (input, output, calls int64) {
	return u.input.Load(), u.output.Load(), u.calls.Load()
}

// Generator calls the Messages API with a single user message per prompt.
type Generator struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature *float64
	reqOpts     []option.RequestOption
	usage       *Usage
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel selects the model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = anthropic.Model(model)
		}
	}
}

// WithMaxTokens caps the response length (default 2048).
func WithMaxTokens(n int64) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = &t
	}
}

// WithRequestOptions passes options to the SDK client, such as a base URL.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(g *Generator) {
		g.reqOpts = append(g.reqOpts, opts...)
	}
}

// New creates a generator. An empty apiKey falls back to ANTHROPIC_API_KEY.
// The SDK's own retries are disabled; wrap the generator with retry.Generator instead.
func New(apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}

	g := &Generator{
		model:     DefaultModel,
		maxTokens: 2048,
		usage:     &Usage{},
	}
	for _, opt := range opts {
		opt(g)
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, g.reqOpts...)
	g.client = anthropic.NewClient(reqOpts...)
	return g, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return string(g.model)
}

// Usage returns the token counters shared by this generator and its tuned variants.
func (g *Generator) Usage() *Usage {
	return g.usage
}

// WithTemperature returns a variant sharing the client and usage counters.
func (g *Generator) WithTemperature(t float64) ports.Generator {
	clone := *g
	clone.temperature = &t
	return &clone
}

// Generate sends prompt as a user message and returns the concatenated text blocks.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if g.temperature != nil {
		params.Temperature = anthropic.Float(*g.temperature)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}

	g.usage.input.Add(resp.Usage.InputTokens)
	g.usage.output.Add(resp.Usage.OutputTokens)
	g.usage.calls.Add(1)

	var b strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic: response has no text content")
	}
	return b.String(), nil
}

// classify marks rate limits, overloads, server errors and network timeouts as transient.
func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch code := apiErr.StatusCode; {
		case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code >= 500:
			return domain.Transient(fmt.Errorf("anthropic: status %d: %w", code, err))
		default:
			return fmt.Errorf("anthropic: status %d: %w", code, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && !errors.Is(err, context.DeadlineExceeded) {
		return domain.Transient(fmt.Errorf("anthropic: %w", err))
	}
	return fmt.Errorf("anthropic: %w", err)
}
