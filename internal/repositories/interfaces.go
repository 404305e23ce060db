package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
)

// ===== STORE ERRORS =====

// ErrBlobNotFound is returned when no state exists under a session ID.
var ErrBlobNotFound = errors.New("session state not found")

// StorageErrorKind classifies where in the session lifecycle a storage
// failure happened.
type StorageErrorKind string

const (
	StorageErrInstantiation StorageErrorKind = "instantiation"
	StorageErrPersistence   StorageErrorKind = "persistence"
	StorageErrRetrieval     StorageErrorKind = "retrieval"
)

// StorageError wraps a store or codec failure with the lifecycle phase
// and session it belongs to.
type StorageError struct {
	Kind      StorageErrorKind
	SessionID string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s error for %s: %v", e.Kind, e.SessionID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError builds a classified storage error.
func NewStorageError(kind StorageErrorKind, sessionID string, err error) *StorageError {
	return &StorageError{Kind: kind, SessionID: sessionID, Err: err}
}

// ===== INTERFACES =====

// BinaryStore persists opaque session state blobs keyed by session ID.
// Implementations exist for the filesystem, Redis and PostgreSQL.
type BinaryStore interface {
	// Put writes or overwrites the blob for a session.
	Put(ctx context.Context, sessionID string, data []byte) error

	// Get reads the blob for a session; ErrBlobNotFound when absent.
	Get(ctx context.Context, sessionID string) ([]byte, error)

	// Exists reports whether a blob is stored for the session.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// Delete removes the blob; deleting an absent blob is not an error.
	Delete(ctx context.Context, sessionID string) error
}

// SessionRepository is the storage surface the delivery service talks
// to: it owns instantiation, persistence and retrieval of sessions and
// hides the codec and the blob store behind it.
type SessionRepository interface {
	// Instantiate builds a fresh session for the repository's test:
	// selection and ordering run, the session ID is minted, and the
	// initial state is persisted before the session is returned.
	Instantiate(ctx context.Context) (*runtime.AssessmentTestSession, error)

	// Persist serializes the session and stores it under its ID.
	Persist(ctx context.Context, session *runtime.AssessmentTestSession) error

	// Retrieve loads and decodes the session stored under the ID.
	Retrieve(ctx context.Context, sessionID string) (*runtime.AssessmentTestSession, error)

	// Exists reports whether state is stored under the ID.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// Delete removes the stored state for the ID.
	Delete(ctx context.Context, sessionID string) error
}
