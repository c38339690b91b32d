package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/relay/internal/runtime"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
)

// Engine is the high-level entry point for the Relay library.
// It wraps the internal executor and provides a simplified API for consumers.
type Engine struct {
	executor *runtime.Executor
	graph    *graph.Graph
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	maxSteps int
	Name     string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxSteps sets the step budget of every run (default 25).
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithName labels the engine; the name is attached to every log line.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New initializes a new Relay Engine for a built graph.
func New(g *graph.Graph, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}

	eng := &Engine{graph: g}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	eng.executor = runtime.NewExecutor(
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithDefaultMaxSteps(eng.maxSteps),
	)
	return eng, nil
}

// Run builds the initial state from values and drives the graph to completion.
// The error is non-nil only when the initial values do not match the schema;
// everything that happens during the run is reported by the Outcome.
func (e *Engine) Run(ctx context.Context, values map[string]any) (domain.Outcome, error) {
	state, err := e.graph.NewState(values)
	if err != nil {
		return domain.Outcome{}, err
	}
	return e.RunState(ctx, state), nil
}

// RunState drives the graph from an existing state.
func (e *Engine) RunState(ctx context.Context, state domain.State) domain.Outcome {
	return e.executor.Run(ctx, e.graph, state, e.maxSteps)
}

// Graph returns the graph the engine executes.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}
