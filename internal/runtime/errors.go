package runtime

import (
	"errors"
	"fmt"
)

// Structural lookup errors. Indexing a position that must exist is an
// error; reading an addressable value that legitimately does not exist is
// reported through a boolean, not an error.
var (
	ErrEmptyRoute      = errors.New("route is empty")
	ErrInvalidPosition = errors.New("route position out of range")
)

// Route construction errors.
var (
	ErrSelectionExceedsPool = errors.New("selection count exceeds available children without replacement")
)

// Session state-violation errors. Fatal to the offending operation, the
// session stays usable.
var (
	ErrMaxAttemptsReached    = errors.New("maximum number of attempts reached")
	ErrSessionCompleted      = errors.New("item session already completed")
	ErrAttemptNotStarted     = errors.New("no attempt in progress")
	ErrSessionNotInteracting = errors.New("session is not in the interacting state")
	ErrTestSessionClosed     = errors.New("test session is closed")
	ErrLinearNavigationOnly  = errors.New("operation not allowed in linear navigation mode")
	ErrJumpNotAllowed        = errors.New("jump not allowed in linear navigation mode")
	ErrSkipNotAllowed        = errors.New("skipping is not allowed by session control")
	ErrGlobalScopeSequenced  = errors.New("sequence number not allowed on a test-level identifier")
	ErrUnknownVariable       = errors.New("no such variable in scope")
	ErrUnknownItemRef        = errors.New("no such item reference in the route")
	ErrBranchTargetBackward  = errors.New("branch rule target lies backward or inside the current position")
	ErrBranchTargetUnknown   = errors.New("branch rule target not found in the route")
)

// IdentifierError reports a malformed variable or component identifier.
type IdentifierError struct {
	Identifier string
	Reason     string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.Identifier, e.Reason)
}

// StateError reports an operation attempted in an incompatible session
// state.
type StateError struct {
	Op    string
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: not permitted in state %s: %v", e.Op, e.State, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
