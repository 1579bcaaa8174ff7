package rules

import (
	"fmt"
)

// Error types for rule operations
type (
	// CompilationError indicates a rule expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Err        error
	}

	// EvaluationError indicates a rule could not be evaluated against a record
	EvaluationError struct {
		Expression string
		Bin        string
		Reason     string
		Err        error
	}
)

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compilation error in '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for rule '%s' on bin '%s': %s", e.Expression, e.Bin, e.Reason)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
