package maestro

import (
	"errors"
	"fmt"
)

// ErrClosed reports a read-back request on a serial backend whose port
// was already closed. Send never returns it; a send on a closed port
// is a status-1 result like any other transport failure.
var ErrClosed = errors.New("port closed")

// ValidationError reports an argument rejected before any device I/O.
// Callers can distinguish it from transport trouble with errors.As.
type ValidationError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s", e.Field, e.Value, e.Reason)
}

func errInvalid(field string, value int, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}
