package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/schema"
)

// Executor drives a graph from its entry to the End sentinel, one stage at a time.
//
// Each run moves through Ready, Running and Merged for every stage and ends in
// Done or Failed. The step budget is checked before every Ready to Running
// transition, so a run invokes at most maxSteps stages.
type Executor struct {
	logger          *slog.Logger
	hooks           domain.LifecycleHooks
	defaultMaxSteps int
	newRunID        func() string
	now             func() time.Time
}

// NewExecutor creates an executor with the given options.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaultMaxSteps: domain.DefaultMaxSteps,
		newRunID:        defaultRunID,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type stageResult struct {
	update    domain.Update
	violation *domain.ContractViolationError
}

// Run executes g starting from initial. A maxSteps of zero or less selects the
// executor's default budget. Run never returns an error: construction problems
// are caught by graph.Build, and run-time problems are reported in the Outcome.
func (e *Executor) Run(ctx context.Context, g *graph.Graph, initial domain.State, maxSteps int) domain.Outcome {
	budget := maxSteps
	if budget <= 0 {
		budget = e.defaultMaxSteps
	}

	out := domain.Outcome{
		RunID:     e.newRunID(),
		StartedAt: e.now(),
	}
	logger := e.logger.With("run_id", out.RunID)
	state := initial
	current := g.Entry()

	logger.Info("Run started", "entry", current, "max_steps", budget)
	notify(ctx, logger, "OnRunStart", e.hooks.OnRunStart, &domain.RunEvent{
		EventBase: e.event(domain.EventRunStart, out.RunID),
		Entry:     current,
	})

	for current != domain.End {
		// Ready
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, logger, out, state, domain.ReasonCancelled, fmt.Errorf("%w: %w", domain.ErrCancelled, err))
		}
		if out.Steps >= budget {
			return e.fail(ctx, logger, out, state, domain.ReasonStepBudget, domain.ErrStepBudgetExceeded)
		}

		step, err := g.Stage(current)
		if err != nil {
			// Unreachable for graphs produced by graph.Build.
			logger.Error("Routed to unregistered stage", "stage", current, "error", err)
			return e.fail(ctx, logger, out, state, err.Error(), err)
		}

		// Running
		out.Steps++
		out.Path = append(out.Path, current)
		started := e.now()
		notify(ctx, logger, "OnStageEnter", e.hooks.OnStageEnter, &domain.StageEvent{
			EventBase: e.event(domain.EventStageEnter, out.RunID),
			Stage:     current,
			Step:      out.Steps,
		})
		logger.Debug("Stage entered", "stage", current, "step", out.Steps)

		res, ok := e.invoke(ctx, current, step, state)
		if !ok {
			logger.Warn("Stage interrupted by cancellation", "stage", current)
			return e.fail(ctx, logger, out, state, domain.ReasonCancelled, fmt.Errorf("%w: %w", domain.ErrCancelled, ctx.Err()))
		}

		update := res.update
		if res.violation != nil {
			out.Violations++
			logger.Error("Stage violated contract", "stage", current, "panic", res.violation.Value)
			notify(ctx, logger, "OnContractViolation", e.hooks.OnContractViolation, &domain.ViolationEvent{
				EventBase: e.event(domain.EventContractViolation, out.RunID),
				Stage:     current,
				Value:     res.violation.Value,
			})
			update = state.Degrade(domain.End, res.violation.Error())
		}
		update = e.sanitize(logger, g.Schema(), current, update)

		// Merged
		state = state.Merge(update)
		next := domain.End
		if res.violation == nil {
			next = e.resolveNext(logger, g, current, state, update)
		}

		notify(ctx, logger, "OnStageLeave", e.hooks.OnStageLeave, &domain.StageEvent{
			EventBase: e.event(domain.EventStageLeave, out.RunID),
			Stage:     current,
			Step:      out.Steps,
			Duration:  e.now().Sub(started),
			Next:      next,
			Status:    state.Status(),
		})
		logger.Debug("Stage left", "stage", current, "next", next, "status", state.Status())

		current = next
	}

	out.Status = domain.RunDone
	return e.finish(ctx, logger, out, state)
}

// invoke runs one stage on its own goroutine. It reports false when the context
// is cancelled first; the stage's eventual result is then dropped.
func (e *Executor) invoke(ctx context.Context, id domain.StageID, step domain.Step, state domain.State) (stageResult, bool) {
	done := make(chan stageResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stageResult{violation: &domain.ContractViolationError{Stage: id, Value: r}}
			}
		}()
		done <- stageResult{update: step.Run(ctx, state)}
	}()

	select {
	case res := <-done:
		return res, true
	case <-ctx.Done():
		return stageResult{}, false
	}
}

// sanitize drops update keys that would break the schema. Merge skips unknown
// keys on its own; mistyped values are removed here so the state stays valid.
func (e *Executor) sanitize(logger *slog.Logger, s *schema.Schema, id domain.StageID, u domain.Update) domain.Update {
	err := s.ValidateFields(u)
	if err == nil {
		return u
	}

	clean := make(domain.Update, len(u))
	for k, v := range u {
		clean[k] = v
	}
	for _, key := range schema.InvalidKeys(err) {
		delete(clean, key)
	}

	var fieldErrs schema.FieldErrors
	if errors.As(err, &fieldErrs) {
		for _, fieldErr := range fieldErrs {
			logger.Warn("Dropped invalid stage write", "stage", id, "error", fieldErr)
		}
	}
	return clean
}

// resolveNext asks the stage's router for the successor. A table-routed stage
// that did not write the routing field has no decision, which resolves to End.
func (e *Executor) resolveNext(logger *slog.Logger, g *graph.Graph, id domain.StageID, state domain.State, u domain.Update) domain.StageID {
	r, ok := g.Router(id)
	if !ok {
		return domain.End
	}
	if _, table := r.(*graph.TableRouter); table {
		if _, decided := u[g.Schema().Route]; !decided {
			logger.Warn("Stage returned no routing decision", "stage", id)
			return domain.End
		}
	}
	next := r.Route(state)
	if next == domain.End && state.Route() != string(domain.End) {
		logger.Debug("Routing decision fell back to END", "stage", id, "decision", state.Route())
	}
	return next
}

func (e *Executor) fail(ctx context.Context, logger *slog.Logger, out domain.Outcome, state domain.State, reason string, err error) domain.Outcome {
	out.Status = domain.RunFailed
	out.Reason = reason
	out.Err = err
	return e.finish(ctx, logger, out, state)
}

func (e *Executor) finish(ctx context.Context, logger *slog.Logger, out domain.Outcome, state domain.State) domain.Outcome {
	out.State = state
	out.FinishedAt = e.now()

	logger.Info("Run finished",
		"status", out.Status,
		"reason", out.Reason,
		"steps", out.Steps,
		"duration", out.Duration())

	// The run is over; hooks must still observe the end even after cancellation.
	notify(context.WithoutCancel(ctx), logger, "OnRunEnd", e.hooks.OnRunEnd, &domain.RunEvent{
		EventBase: e.event(domain.EventRunEnd, out.RunID),
		Outcome:   &out,
	})
	return out
}

func (e *Executor) event(t domain.EventType, runID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, RunID: runID}
}

// notify calls an observer hook. A panicking hook is logged and ignored so it
// cannot take the run down with it.
func notify[E any](ctx context.Context, logger *slog.Logger, name string, hook func(context.Context, *E), ev *E) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Lifecycle hook panicked", "hook", name, "panic", r)
		}
	}()
	hook(ctx, ev)
}
