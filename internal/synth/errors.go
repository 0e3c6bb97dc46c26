package synth

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSelector reports a selector kind the synthesizer cannot
// express as a parameter. The owning action is skipped.
var ErrUnsupportedSelector = errors.New("synth: unsupported selector kind")

// ValidationError rejects a submitted value before any remote call is
// made. The message is user-facing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
