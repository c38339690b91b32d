package domain

import (
	"errors"
	"fmt"
)

// ErrStepBudgetExceeded is reported when a run invokes more stages than its budget allows.
var ErrStepBudgetExceeded = errors.New(ReasonStepBudget)

// ErrCancelled is reported when the caller cancels a run.
var ErrCancelled = errors.New(ReasonCancelled)

// ErrRunNotFound is returned when a run ID cannot be found in a history store.
var ErrRunNotFound = errors.New("run not found")

// ErrTransient marks collaborator failures worth retrying (timeouts, rate limits).
// Wrap it with fmt.Errorf("...: %w", ErrTransient) or use Transient.
var ErrTransient = errors.New("transient failure")

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// IsTransient reports whether err was marked retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// ContractViolationError describes a stage that let a failure escape its boundary.
type ContractViolationError struct {
	Stage StageID
	Value any
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("stage %s violated contract: %v", e.Stage, e.Value)
}
