package orchestrator

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Attempt records one failed backend call.
type Attempt struct {
	Backend BackendID
	Err     error
	Elapsed time.Duration
}

// ExhaustionError is returned when every backend in the priority list failed.
// Attempts has one entry per backend, in the order they were tried.
type ExhaustionError struct {
	Attempts []Attempt
}

func (e *ExhaustionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all %d backends failed", len(e.Attempts))
	for i, a := range e.Attempts {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %v", a.Backend, a.Err)
	}
	return b.String()
}

// Unwrap exposes every attempt error to errors.Is and errors.As.
func (e *ExhaustionError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Backends returns the ids that were tried, in order.
func (e *ExhaustionError) Backends() []BackendID {
	ids := make([]BackendID, len(e.Attempts))
	for i, a := range e.Attempts {
		ids[i] = a.Backend
	}
	return ids
}

// AsExhaustion reports whether err carries an *ExhaustionError and returns it.
func AsExhaustion(err error) (*ExhaustionError, bool) {
	var exhausted *ExhaustionError
	if errors.As(err, &exhausted) {
		return exhausted, true
	}
	return nil, false
}
