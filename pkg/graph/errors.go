package graph

import (
	"errors"
	"fmt"

	"github.com/aretw0/relay/pkg/domain"
)

// ErrConstruction matches every error returned by Build.
var ErrConstruction = errors.New("invalid graph")

// ErrStageNotFound is returned by Graph.Stage for an unregistered identifier.
var ErrStageNotFound = errors.New("stage not found")

// DanglingReferenceError reports a route that names an unregistered stage.
// Stage is empty when the routing table itself is keyed by an unregistered stage.
type DanglingReferenceError struct {
	Stage  domain.StageID
	Target domain.StageID
}

func (e *DanglingReferenceError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("routing defined for unregistered stage %q", e.Target)
	}
	return fmt.Sprintf("stage %q routes to unregistered stage %q", e.Stage, e.Target)
}

func (e *DanglingReferenceError) Is(target error) bool { return target == ErrConstruction }

// InvalidEntryError reports an entry that is not a registered stage.
type InvalidEntryError struct {
	Entry domain.StageID
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("entry %q is not a registered stage", e.Entry)
}

func (e *InvalidEntryError) Is(target error) bool { return target == ErrConstruction }

// UnknownFieldError reports a stage that declares a write the schema does not define.
type UnknownFieldError struct {
	Stage domain.StageID
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("stage %q writes undeclared field %q", e.Stage, e.Field)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrConstruction }

// InvalidStageError reports a stage that cannot be registered at all.
type InvalidStageError struct {
	Stage  domain.StageID
	Reason string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("stage %q: %s", e.Stage, e.Reason)
}

func (e *InvalidStageError) Is(target error) bool { return target == ErrConstruction }
