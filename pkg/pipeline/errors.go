package pipeline

import (
	"errors"
	"fmt"

	"sales-etl/pkg/source"
)

// ErrorCategory classifies where in the run a failure happened.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategorySource
	CategorySchema
	CategoryBuild
	CategoryVerification
	CategorySink
	CategoryAudit
)

// String returns a human-readable representation of the error category
func (c ErrorCategory) String() string {
	switch c {
	case CategorySource:
		return "Source"
	case CategorySchema:
		return "Schema"
	case CategoryBuild:
		return "Build"
	case CategoryVerification:
		return "Verification"
	case CategorySink:
		return "Sink"
	case CategoryAudit:
		return "Audit"
	default:
		return "Unknown"
	}
}

// StageError wraps a failure with the stage it occurred in and its category.
// The run aborts on the first StageError; nothing downstream is attempted.
type StageError struct {
	Stage    string
	Category ErrorCategory
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed [%s]: %v", e.Stage, e.Category, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, category ErrorCategory, err error) *StageError {
	if errors.Is(err, source.ErrSchemaMismatch) {
		category = CategorySchema
	}
	return &StageError{Stage: stage, Category: category, Err: err}
}
