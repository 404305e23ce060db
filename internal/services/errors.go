package services

import (
	"errors"
	"fmt"
)

// ===== SERVICE ERRORS =====

var (
	ErrSessionNotFound   = errors.New("delivery session not found")
	ErrSessionNotRunning = errors.New("delivery session is not running")
	ErrSessionClosed     = errors.New("delivery session is closed")
	ErrNoCurrentItem     = errors.New("route cursor is not on an item")
	ErrVariableNotFound  = errors.New("variable not found")
)

// DeliveryError attaches the session and operation to an underlying
// runtime or storage failure.
type DeliveryError struct {
	SessionID string
	Operation string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery operation %s failed for session %s: %v", e.Operation, e.SessionID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// NewDeliveryError wraps err with delivery context.
func NewDeliveryError(sessionID, operation string, err error) *DeliveryError {
	return &DeliveryError{SessionID: sessionID, Operation: operation, Err: err}
}
