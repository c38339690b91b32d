package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError reports one field that failed validation.
type FieldError struct {
	Field   string
	Problem string
	// Got is the offending value; nil when the field was missing.
	Got any
}

func (e *FieldError) Error() string {
	if e.Got == nil {
		return e.Field + ": " + e.Problem
	}
	return fmt.Sprintf("%s: %s (got %T)", e.Field, e.Problem, e.Got)
}

// FieldErrors collects every failure found in one validation pass, in key order.
type FieldErrors []*FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.As reach the individual field errors.
func (fe FieldErrors) Unwrap() []error {
	errs := make([]error, len(fe))
	for i, e := range fe {
		errs[i] = e
	}
	return errs
}

// InvalidKeys lists the field names rejected inside err.
func InvalidKeys(err error) []string {
	var fe FieldErrors
	if !errors.As(err, &fe) {
		return nil
	}
	keys := make([]string, len(fe))
	for i, e := range fe {
		keys[i] = e.Field
	}
	return keys
}
