// Package runtime contains the executor that drives a built graph.
//
// The executor is single-threaded with respect to the shared state: exactly one
// stage runs at a time, and its update is merged before the next stage is
// chosen. Stages run on their own goroutine only so that cancellation and
// recovered panics can be observed without trusting the stage.
package runtime
