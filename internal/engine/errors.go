package engine

import (
	"errors"
	"fmt"
)

// ErrUnsupportedAction means a step's action is outside the closed
// vocabulary.
var ErrUnsupportedAction = errors.New("unsupported action")

// AssertionError is raised by assertion actions on mismatch. The interpreter
// absorbs it into a failed step outcome; it never crosses the scenario
// boundary as an error.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string {
	return "assertion failed: " + e.Msg
}

func assertionf(format string, args ...any) *AssertionError {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// OrchestrationError marks a scenario- or run-level fault outside step
// execution, such as a scenario file that fails to parse mid-run.
type OrchestrationError struct {
	Op  string
	Err error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("orchestration fault: %s: %v", e.Op, e.Err)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}
