package domain

import "time"

// Outcome is the terminal result of a run.
type Outcome struct {
	RunID  string    `json:"run_id"`
	Status RunStatus `json:"status"`
	// Reason explains a failed run ("step budget exceeded", "cancelled").
	Reason string `json:"reason,omitempty"`
	// Err carries the failure as a matchable error (ErrStepBudgetExceeded, ErrCancelled).
	Err error `json:"-"`
	// State is the snapshot after the last completed merge.
	State State `json:"state"`
	// Path lists the stages invoked, in order.
	Path []StageID `json:"path"`
	// Steps counts stage invocations, including one interrupted by cancellation.
	Steps int `json:"steps"`
	// Violations counts stages that broke the step contract and were recovered.
	Violations int       `json:"violations,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Done reports whether the run reached the terminal sentinel.
func (o Outcome) Done() bool {
	return o.Status == RunDone
}

// Duration returns the wall-clock time of the run.
func (o Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}
