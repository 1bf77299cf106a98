package utils

import (
	"errors"
	"fmt"
)

// StageError marks a fatal failure of one pipeline stage. Anything wrapped in
// a StageError aborts the run with a non-zero exit.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a StageError for stage. A nil err stays nil.
func Fatal(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// IsFatal reports whether err carries a StageError.
func IsFatal(err error) bool {
	var se *StageError
	return errors.As(err, &se)
}
