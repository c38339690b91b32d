package domain

import "context"

// Step is the work performed by one stage.
//
// A Step reads the current State and returns a partial Update. It must not let
// failures escape: a failing step records a diagnostic in the status field and
// sets the routing field to a fallback stage or End. The context is cancelled
// when the run is cancelled; a step may return early but its result is discarded.
type Step interface {
	Run(ctx context.Context, state State) Update
}

// StepFunc adapts a plain function to the Step interface.
type StepFunc func(ctx context.Context, state State) Update

// Run calls f(ctx, state).
func (f StepFunc) Run(ctx context.Context, state State) Update {
	return f(ctx, state)
}

// Declarer is implemented by steps that declare the fields they may write.
// Declared writes are checked against the schema when the graph is built.
type Declarer interface {
	Writes() []string
}

// Declared wraps a step with an explicit list of written fields.
func Declared(step Step, writes ...string) Step {
	return declaredStep{Step: step, writes: writes}
}

type declaredStep struct {
	Step
	writes []string
}

func (d declaredStep) Writes() []string {
	return append([]string(nil), d.writes...)
}
