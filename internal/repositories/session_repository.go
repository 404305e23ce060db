package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/qti-delivery-service/internal/codec"
	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
)

// SessionRepositoryConfig wires one test definition to a blob store and
// the processors its sessions run with.
type SessionRepositoryConfig struct {
	Test              *models.AssessmentTest
	Store             BinaryStore
	ResponseProcessor runtime.ResponseProcessor
	OutcomeProcessor  runtime.OutcomeProcessor

	// Rand drives selection and ordering; nil means time-seeded.
	Rand runtime.Rand

	// SessionConfig is the feature bitmask applied to new sessions.
	SessionConfig uint16

	// AcceptableLatency is deducted from reported elapsed time.
	AcceptableLatency time.Duration

	Logger *slog.Logger
}

type sessionRepository struct {
	test    *models.AssessmentTest
	store   BinaryStore
	codec   *codec.SessionCodec
	builder *runtime.RouteBuilder
	rp      runtime.ResponseProcessor
	op      runtime.OutcomeProcessor

	sessionConfig     uint16
	acceptableLatency time.Duration
	logger            *slog.Logger
}

// NewSessionRepository builds the repository for one test definition.
func NewSessionRepository(cfg SessionRepositoryConfig) SessionRepository {
	rng := cfg.Rand
	if rng == nil {
		rng = runtime.NewRand()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionRepository{
		test:              cfg.Test,
		store:             cfg.Store,
		codec:             codec.NewSessionCodec(cfg.Test),
		builder:           runtime.NewRouteBuilder(rng),
		rp:                cfg.ResponseProcessor,
		op:                cfg.OutcomeProcessor,
		sessionConfig:     cfg.SessionConfig,
		acceptableLatency: cfg.AcceptableLatency,
		logger:            logger,
	}
}

func (r *sessionRepository) Instantiate(ctx context.Context) (*runtime.AssessmentTestSession, error) {
	route, err := r.builder.Build(r.test)
	if err != nil {
		return nil, NewStorageError(StorageErrInstantiation, "", err)
	}

	sessionID := uuid.New().String()
	session := runtime.NewAssessmentTestSession(sessionID, r.test, route, r.rp, r.op)
	session.Config = r.sessionConfig
	session.AcceptableLatency = r.acceptableLatency

	if err := r.Persist(ctx, session); err != nil {
		return nil, NewStorageError(StorageErrInstantiation, sessionID, err)
	}

	r.logger.InfoContext(ctx, "Session instantiated",
		"session_id", sessionID,
		"test_identifier", r.test.Identifier,
		"route_length", route.Count())
	return session, nil
}

func (r *sessionRepository) Persist(ctx context.Context, session *runtime.AssessmentTestSession) error {
	data, err := r.codec.Encode(session)
	if err != nil {
		return NewStorageError(StorageErrPersistence, session.SessionID, err)
	}
	if err := r.store.Put(ctx, session.SessionID, data); err != nil {
		return NewStorageError(StorageErrPersistence, session.SessionID, err)
	}
	return nil
}

func (r *sessionRepository) Retrieve(ctx context.Context, sessionID string) (*runtime.AssessmentTestSession, error) {
	data, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return nil, NewStorageError(StorageErrRetrieval, sessionID, err)
	}
	session, err := r.codec.Decode(data, sessionID, r.rp, r.op)
	if err != nil {
		return nil, NewStorageError(StorageErrRetrieval, sessionID, err)
	}
	session.AcceptableLatency = r.acceptableLatency
	return session, nil
}

func (r *sessionRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	return r.store.Exists(ctx, sessionID)
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.store.Delete(ctx, sessionID)
}
