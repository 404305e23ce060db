package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/qti-delivery-service/internal/events"
	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/repositories"
	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
	"github.com/SAP-F-2025/qti-delivery-service/internal/validator"
)

type deliveryService struct {
	repo           repositories.SessionRepository
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
}

func NewDeliveryService(repo repositories.SessionRepository, eventPublisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) DeliveryService {
	return &deliveryService{
		repo:           repo,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
	}
}

// ===== SESSION LIFECYCLE =====

func (s *deliveryService) StartSession(ctx context.Context, req *InstantiateSessionRequest) (*SessionResponse, error) {
	s.logger.Info("Starting delivery session", "candidate_id", req.CandidateID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.repo.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate session: %w", err)
	}

	s.publish(ctx, events.NewEvent(events.EventSessionInstantiated, s.sessionEvent(session, req.CandidateID)))

	if err := session.BeginTestSession(); err != nil {
		return nil, NewDeliveryError(session.SessionID, "start", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventSessionStarted, s.sessionEvent(session, req.CandidateID)))

	s.logger.Info("Delivery session started",
		"session_id", session.SessionID,
		"candidate_id", req.CandidateID,
		"route_length", session.Route.Count())

	return s.toResponse(session), nil
}

func (s *deliveryService) GetSession(ctx context.Context, sessionID string) (*SessionResponse, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(session), nil
}

func (s *deliveryService) SuspendSession(ctx context.Context, sessionID string) (*SessionResponse, error) {
	s.logger.Info("Suspending delivery session", "session_id", sessionID)

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Suspend(); err != nil {
		return nil, NewDeliveryError(sessionID, "suspend", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventSessionSuspended, s.sessionEvent(session, "")))
	return s.toResponse(session), nil
}

func (s *deliveryService) ResumeSession(ctx context.Context, sessionID string) (*SessionResponse, error) {
	s.logger.Info("Resuming delivery session", "session_id", sessionID)

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Resume(); err != nil {
		return nil, NewDeliveryError(sessionID, "resume", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventSessionResumed, s.sessionEvent(session, "")))
	return s.toResponse(session), nil
}

func (s *deliveryService) EndSession(ctx context.Context, sessionID string) (*SessionResponse, error) {
	s.logger.Info("Ending delivery session", "session_id", sessionID)

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.EndTestSession(); err != nil {
		return nil, NewDeliveryError(sessionID, "end", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}

	s.publishEnded(ctx, session)
	return s.toResponse(session), nil
}

func (s *deliveryService) DeleteSession(ctx context.Context, sessionID string) error {
	s.logger.Info("Deleting delivery session", "session_id", sessionID)

	exists, err := s.repo.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}
	return s.repo.Delete(ctx, sessionID)
}

// ===== ATTEMPTS =====

func (s *deliveryService) BeginAttempt(ctx context.Context, sessionID string) (*SessionResponse, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.BeginAttempt(); err != nil {
		return nil, NewDeliveryError(sessionID, "begin_attempt", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventAttemptBegun, s.attemptEvent(session)))
	return s.toResponse(session), nil
}

func (s *deliveryService) EndAttempt(ctx context.Context, sessionID string, req *SubmitResponsesRequest) (*SessionResponse, error) {
	s.logger.Info("Ending attempt",
		"session_id", sessionID,
		"responses_count", len(req.Responses))

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	responses, err := convertResponses(req)
	if err != nil {
		return nil, fmt.Errorf("invalid responses: %w", err)
	}

	attemptEvent := s.attemptEvent(session)
	if err := session.EndAttempt(responses); err != nil {
		return nil, NewDeliveryError(sessionID, "end_attempt", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventAttemptEnded, attemptEvent))
	if session.Route.IsSubmissionIndividual() {
		s.publish(ctx, events.NewEvent(events.EventOutcomesProcessed, s.outcomesEvent(session)))
	}
	return s.toResponse(session), nil
}

func (s *deliveryService) SkipItem(ctx context.Context, sessionID string) (*SessionResponse, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	skipped := s.attemptEvent(session)
	wasRunning := session.Running()
	if err := session.SkipItem(); err != nil {
		return nil, NewDeliveryError(sessionID, "skip", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventItemSkipped, skipped))
	if wasRunning && !session.Running() {
		s.publishEnded(ctx, session)
	}
	return s.toResponse(session), nil
}

// ===== NAVIGATION =====

func (s *deliveryService) MoveNext(ctx context.Context, sessionID string) (*SessionResponse, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	wasRunning := session.Running()
	if err := session.MoveNext(); err != nil {
		return nil, NewDeliveryError(sessionID, "move_next", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}

	if wasRunning && !session.Running() {
		s.publishEnded(ctx, session)
	}
	return s.toResponse(session), nil
}

func (s *deliveryService) MoveBack(ctx context.Context, sessionID string) (*SessionResponse, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.MoveBack(); err != nil {
		return nil, NewDeliveryError(sessionID, "move_back", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}
	return s.toResponse(session), nil
}

func (s *deliveryService) JumpTo(ctx context.Context, sessionID string, req *JumpRequest) (*SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.JumpTo(*req.Position); err != nil {
		return nil, NewDeliveryError(sessionID, "jump", err)
	}
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}
	return s.toResponse(session), nil
}

// ===== TIME AND VARIABLES =====

func (s *deliveryService) AddElapsedTime(ctx context.Context, sessionID string, req *AddTimeRequest) (*SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.AddElapsedTime(time.Duration(req.Seconds * float64(time.Second)))
	if err := s.repo.Persist(ctx, session); err != nil {
		return nil, err
	}
	return s.toResponse(session), nil
}

func (s *deliveryService) GetVariable(ctx context.Context, sessionID, identifier string) (*VariableResponse, error) {
	if _, err := runtime.ParseVariableRef(identifier); err != nil {
		return nil, fmt.Errorf("invalid variable identifier: %w", err)
	}

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	value, ok := session.Variable(identifier)
	if !ok {
		return nil, ErrVariableNotFound
	}
	return &VariableResponse{
		Identifier:  identifier,
		Cardinality: string(value.Cardinality),
		BaseType:    string(value.BaseType),
		Null:        value.IsNull(),
		Values:      value.Strings(),
	}, nil
}

func (s *deliveryService) GetOutcomes(ctx context.Context, sessionID string) (map[string][]string, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return outcomeStrings(session), nil
}

// ===== HELPERS =====

func (s *deliveryService) load(ctx context.Context, sessionID string) (*runtime.AssessmentTestSession, error) {
	session, err := s.repo.Retrieve(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrBlobNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve session: %w", err)
	}
	return session, nil
}

func (s *deliveryService) publish(ctx context.Context, event *events.Event) {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}

func (s *deliveryService) publishEnded(ctx context.Context, session *runtime.AssessmentTestSession) {
	s.publish(ctx, events.NewEvent(events.EventSessionEnded, s.sessionEvent(session, "")))
	s.publish(ctx, events.NewEvent(events.EventOutcomesProcessed, s.outcomesEvent(session)))
}

func (s *deliveryService) sessionEvent(session *runtime.AssessmentTestSession, candidateID string) *events.SessionEvent {
	return &events.SessionEvent{
		SessionID:      session.SessionID,
		TestIdentifier: session.Test.Identifier,
		CandidateID:    candidateID,
		State:          session.State.String(),
		RouteLength:    session.Route.Count(),
		RoutePosition:  session.Route.Position(),
	}
}

func (s *deliveryService) attemptEvent(session *runtime.AssessmentTestSession) *events.AttemptEvent {
	event := &events.AttemptEvent{SessionID: session.SessionID}
	is, err := session.CurrentItemSession()
	if err != nil {
		return event
	}
	event.ItemIdentifier = is.ItemRef.Identifier
	event.Occurrence = is.Occurrence
	event.NumAttempts = is.NumAttempts
	event.CompletionStatus = is.CompletionStatus
	return event
}

func (s *deliveryService) outcomesEvent(session *runtime.AssessmentTestSession) *events.OutcomesEvent {
	outcomes := make(map[string]string)
	for name, values := range outcomeStrings(session) {
		if len(values) == 1 {
			outcomes[name] = values[0]
		}
	}
	return &events.OutcomesEvent{SessionID: session.SessionID, Outcomes: outcomes}
}

func (s *deliveryService) toResponse(session *runtime.AssessmentTestSession) *SessionResponse {
	resp := &SessionResponse{
		SessionID:            session.SessionID,
		TestIdentifier:       session.Test.Identifier,
		State:                session.State.String(),
		RoutePosition:        session.Route.Position(),
		RouteLength:          session.Route.Count(),
		Exhausted:            !session.Route.Valid(),
		NavigationLinear:     session.Route.IsNavigationLinear(),
		SubmissionIndividual: session.Route.IsSubmissionIndividual(),
		VisitedTestParts:     session.VisitedTestParts,
	}

	if is, err := session.CurrentItemSession(); err == nil {
		resp.CurrentItem = &ItemView{
			Identifier:       is.ItemRef.Identifier,
			Occurrence:       is.Occurrence,
			State:            is.State.String(),
			NumAttempts:      is.NumAttempts,
			MaxAttempts:      is.Control.MaxAttempts,
			CompletionStatus: is.CompletionStatus,
			Attempting:       is.Attempting,
			AllowSkipping:    is.Control.AllowSkipping,
			AllowReview:      is.Control.AllowReview,
		}
		if ri, err := session.Route.Current(); err == nil {
			resp.CurrentItem.Section = sectionIdentifier(ri)
		}
		if is.ItemRef.Item != nil {
			resp.CurrentItem.Title = is.ItemRef.Item.Title
		}
	}

	if session.State == runtime.TestStateClosed {
		resp.Outcomes = outcomeStrings(session)
	}
	return resp
}

func sectionIdentifier(ri *runtime.RouteItem) string {
	if sec := ri.Section(); sec != nil {
		return sec.Identifier
	}
	return ""
}

func outcomeStrings(session *runtime.AssessmentTestSession) map[string][]string {
	out := make(map[string][]string, len(session.OutcomeNames()))
	for _, name := range session.OutcomeNames() {
		out[name] = session.Outcome(name).Value.Strings()
	}
	return out
}

func convertResponses(req *SubmitResponsesRequest) (map[string]models.Value, error) {
	responses := make(map[string]models.Value, len(req.Responses))
	for identifier, payload := range req.Responses {
		value, err := payload.ToValue()
		if err != nil {
			return nil, fmt.Errorf("response %s: %w", identifier, err)
		}
		responses[identifier] = value
	}
	return responses, nil
}
