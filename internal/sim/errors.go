package sim

import (
	"errors"
	"fmt"
)

// Error taxonomy. Setup errors reject a match before the first tick;
// runtime errors abort a running match with a consistent partial result;
// validation errors reject operations against a running match (timeouts,
// substitutions); cancellation is not an error at all, the result just
// carries IsAborted.

var (
	// ErrMatchFinished is returned for operations on a finalized match.
	ErrMatchFinished = errors.New("match already finished")

	// ErrNoTimeoutsLeft rejects a timeout request with none remaining.
	ErrNoTimeoutsLeft = errors.New("no timeouts remaining")

	// ErrIllegalSubstitution rejects a swap that would break the roster
	// rules (player not on court / not on bench, or a suspended player).
	ErrIllegalSubstitution = errors.New("illegal substitution")
)

// SetupError reports an invalid match request. The match never starts.
type SetupError struct {
	Field  string
	Reason string
	Err    error
}

func (e *SetupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("match setup: %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("match setup: %s: %s", e.Field, e.Reason)
}

func (e *SetupError) Unwrap() error { return e.Err }

func setupErr(field, reason string, err error) *SetupError {
	return &SetupError{Field: field, Reason: reason, Err: err}
}

// RuntimeError reports an internal inconsistency detected mid-match, such as
// an impossible phase transition. It aborts the run; the partial result is
// still returned.
type RuntimeError struct {
	Tick  uint64
	Clock float64
	Err   error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("simulation error at tick %d (%.1fs): %v", e.Tick, e.Clock, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
