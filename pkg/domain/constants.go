package domain

// StageID identifies a stage within a graph.
type StageID string

// End is the terminal sentinel. It is never a registered stage.
const End StageID = "END"

// Phase is the executor's position in its state machine.
type Phase string

const (
	PhaseReady   Phase = "ready"   // About to invoke the current stage
	PhaseRunning Phase = "running" // A stage is executing
	PhaseMerged  Phase = "merged"  // The stage result has been merged, next stage not yet chosen
	PhaseDone    Phase = "done"    // Terminal sentinel reached
	PhaseFailed  Phase = "failed"  // Budget exhausted or cancelled
)

// RunStatus is the terminal status reported by an Outcome.
type RunStatus string

const (
	RunDone   RunStatus = "done"
	RunFailed RunStatus = "failed"
)

// Failure reasons reported by the executor.
const (
	ReasonStepBudget = "step budget exceeded"
	ReasonCancelled  = "cancelled"
)

// DefaultMaxSteps bounds stage invocations when the caller does not choose a budget.
const DefaultMaxSteps = 25
