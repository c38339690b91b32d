package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/google/uuid"
)

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithDefaultMaxSteps sets the budget used when Run is called with maxSteps <= 0.
func WithDefaultMaxSteps(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.defaultMaxSteps = n
		}
	}
}

// WithRunIDGenerator replaces the uuid-based run ID generator.
func WithRunIDGenerator(gen func() string) Option {
	return func(e *Executor) {
		if gen != nil {
			e.newRunID = gen
		}
	}
}

// WithClock replaces time.Now, mostly for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

func defaultRunID() string {
	return uuid.NewString()
}
