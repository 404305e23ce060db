package runtime

import (
	"fmt"
	"time"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// TestSessionState enumerates the test session state machine.
type TestSessionState byte

const (
	TestStateInitial TestSessionState = iota
	TestStateInteracting
	TestStateModalFeedback
	TestStateSuspended
	TestStateClosed
)

func (s TestSessionState) String() string {
	switch s {
	case TestStateInitial:
		return "initial"
	case TestStateInteracting:
		return "interacting"
	case TestStateModalFeedback:
		return "modalFeedback"
	case TestStateSuspended:
		return "suspended"
	case TestStateClosed:
		return "closed"
	}
	return "unknown"
}

// Session configuration flags, persisted as a bitmask.
const (
	ConfigConsiderMinTime uint16 = 1 << iota
	ConfigAlwaysAllowJumps
)

// PendingResponses stages candidate responses for one item occurrence
// while the owning test part runs in simultaneous submission mode. The
// staged responses are applied and processed together when the part is
// exited.
type PendingResponses struct {
	ItemRef    *models.AssessmentItemRef
	Occurrence int
	Responses  map[string]models.Value
}

// AssessmentTestSession is the top-level state machine for one
// candidate's run of a test: it owns the route, the item sessions and the
// test-level outcome variables, and enforces navigation and submission
// semantics.
type AssessmentTestSession struct {
	SessionID string
	Test      *models.AssessmentTest
	Route     *Route

	State TestSessionState

	// VisitedTestParts records entered test part identifiers in entry
	// order; Path records the flow of visited route positions, branches
	// included.
	VisitedTestParts []string
	Path             []int

	// TimeReference anchors duration accounting between suspensions.
	TimeReference      *time.Time
	LastProcessingTime time.Time

	Config            uint16
	AcceptableLatency time.Duration

	itemSessions map[string][]*AssessmentItemSession
	outcomes     map[string]*Variable
	outcomeOrder []string
	durations    map[string]time.Duration
	pending      []*PendingResponses

	// lastOccurrences records, per item reference, the occurrence whose
	// variables were updated most recently. Bare-identifier reads into an
	// item with several occurrences follow this marker.
	lastOccurrences map[string]int

	responseProcessor ResponseProcessor
	outcomeProcessor  OutcomeProcessor
}

// NewAssessmentTestSession binds a session to a test definition and a
// freshly built route. The session does nothing until BeginTestSession.
func NewAssessmentTestSession(sessionID string, test *models.AssessmentTest, route *Route, rp ResponseProcessor, op OutcomeProcessor) *AssessmentTestSession {
	s := &AssessmentTestSession{
		SessionID:         sessionID,
		Test:              test,
		Route:             route,
		State:             TestStateInitial,
		itemSessions:      make(map[string][]*AssessmentItemSession),
		outcomes:          make(map[string]*Variable),
		durations:         make(map[string]time.Duration),
		lastOccurrences:   make(map[string]int),
		responseProcessor: rp,
		outcomeProcessor:  op,
	}
	for _, d := range test.OutcomeDeclarations {
		s.outcomes[d.Identifier] = &Variable{
			Decl:  d,
			Value: models.NullValue(d.Cardinality, d.BaseType),
		}
		s.outcomeOrder = append(s.outcomeOrder, d.Identifier)
	}
	return s
}

// ===== LIFECYCLE =====

// BeginTestSession initializes one item session per route item, resets
// the test-level outcomes, and begins the contiguous linear-mode prefix
// of the route. Non-linear items are begun on demand when first visited.
func (s *AssessmentTestSession) BeginTestSession() error {
	if s.State != TestStateInitial {
		return &StateError{Op: "begin test session", State: s.State.String(), Err: ErrTestSessionClosed}
	}

	for _, ri := range s.Route.Items() {
		id := ri.ItemRef.Identifier
		s.itemSessions[id] = append(s.itemSessions[id], NewAssessmentItemSession(ri))
	}

	for _, name := range s.outcomeOrder {
		v := s.outcomes[name]
		if d := v.Decl.DefaultValue; d != nil {
			v.Value = *d
		} else {
			v.Value = models.ZeroValue(v.Decl.Cardinality, v.Decl.BaseType)
		}
	}

	for _, ri := range s.Route.Items() {
		if ri.TestPart.NavigationMode != models.NavigationLinear {
			break
		}
		sess, ok := s.ItemSession(ri.ItemRef.Identifier, ri.Occurrence)
		if !ok {
			return fmt.Errorf("item session %s.%d missing after initialization", ri.ItemRef.Identifier, ri.Occurrence)
		}
		sess.BeginItemSession()
	}

	s.Route.Rewind()
	s.State = TestStateInteracting
	now := time.Now()
	s.TimeReference = &now
	s.recordEntry()
	return nil
}

// EndTestSession flushes any staged responses, closes every item session
// and runs the final outcome processing.
func (s *AssessmentTestSession) EndTestSession() error {
	if s.State == TestStateClosed {
		return nil
	}
	if err := s.flushPending(); err != nil {
		return err
	}
	for _, sessions := range s.itemSessions {
		for _, is := range sessions {
			if !is.Closed() {
				is.EndItemSession()
			}
		}
	}
	s.State = TestStateClosed
	return s.processOutcomes()
}

// Suspend parks the session between requests; duration accounting stops
// at the recorded time reference.
func (s *AssessmentTestSession) Suspend() error {
	if s.State != TestStateInteracting {
		return &StateError{Op: "suspend", State: s.State.String(), Err: ErrSessionNotInteracting}
	}
	s.State = TestStateSuspended
	return nil
}

// Resume reactivates a suspended session and re-anchors the time
// reference.
func (s *AssessmentTestSession) Resume() error {
	if s.State != TestStateSuspended {
		return &StateError{Op: "resume", State: s.State.String(), Err: ErrSessionNotInteracting}
	}
	s.State = TestStateInteracting
	now := time.Now()
	s.TimeReference = &now
	return nil
}

// Running reports whether the route still addresses an item and the
// session is not closed.
func (s *AssessmentTestSession) Running() bool {
	return s.State != TestStateClosed && s.Route.Valid()
}

// ===== ITEM SESSION ACCESS =====

// CurrentItemSession returns the item session under the route cursor.
func (s *AssessmentTestSession) CurrentItemSession() (*AssessmentItemSession, error) {
	ri, err := s.Route.Current()
	if err != nil {
		return nil, err
	}
	sess, ok := s.ItemSession(ri.ItemRef.Identifier, ri.Occurrence)
	if !ok {
		return nil, fmt.Errorf("item session %s.%d: %w", ri.ItemRef.Identifier, ri.Occurrence, ErrUnknownItemRef)
	}
	return sess, nil
}

// ItemSession returns the session for an item reference identifier and
// 0-based occurrence. The boolean is false when no such session exists.
func (s *AssessmentTestSession) ItemSession(identifier string, occurrence int) (*AssessmentItemSession, bool) {
	sessions := s.itemSessions[identifier]
	if occurrence < 0 || occurrence >= len(sessions) {
		return nil, false
	}
	return sessions[occurrence], true
}

// ItemSessions returns all sessions for an identifier, occurrence order.
func (s *AssessmentTestSession) ItemSessions(identifier string) []*AssessmentItemSession {
	return s.itemSessions[identifier]
}

// AttachItemSession registers a restored item session, occurrence order.
// Used when rebuilding a session from its persisted form.
func (s *AssessmentTestSession) AttachItemSession(is *AssessmentItemSession) {
	id := is.ItemRef.Identifier
	s.itemSessions[id] = append(s.itemSessions[id], is)
}

// ===== ATTEMPTS =====

// BeginAttempt starts an attempt on the current item.
func (s *AssessmentTestSession) BeginAttempt() error {
	if s.State != TestStateInteracting {
		return &StateError{Op: "begin attempt", State: s.State.String(), Err: ErrSessionNotInteracting}
	}
	sess, err := s.CurrentItemSession()
	if err != nil {
		return err
	}
	s.ensureBegun(sess)
	return sess.BeginAttempt()
}

// EndAttempt ends the attempt on the current item. In individual
// submission mode the responses are processed immediately and the
// test-level outcomes recomputed; in simultaneous mode the responses are
// staged until the test part is exited.
func (s *AssessmentTestSession) EndAttempt(responses map[string]models.Value) error {
	if s.State != TestStateInteracting {
		return &StateError{Op: "end attempt", State: s.State.String(), Err: ErrSessionNotInteracting}
	}
	ri, err := s.Route.Current()
	if err != nil {
		return err
	}
	sess, err := s.CurrentItemSession()
	if err != nil {
		return err
	}

	if s.Route.IsSubmissionIndividual() {
		if err := sess.EndAttempt(responses, s.responseProcessor, true); err != nil {
			return err
		}
		s.lastOccurrences[ri.ItemRef.Identifier] = ri.Occurrence
		return s.processOutcomes()
	}

	if err := sess.EndAttempt(nil, nil, false); err != nil {
		return err
	}
	s.lastOccurrences[ri.ItemRef.Identifier] = ri.Occurrence
	s.stagePending(ri, responses)
	return nil
}

// LastOccurrenceUpdate reports which occurrence of an item reference was
// updated last. The boolean is false when no occurrence has been updated.
func (s *AssessmentTestSession) LastOccurrenceUpdate(identifier string) (int, bool) {
	occ, ok := s.lastOccurrences[identifier]
	return occ, ok
}

// NotifyLastOccurrenceUpdate marks an occurrence as the most recently
// updated one for its item reference. Used on session restore.
func (s *AssessmentTestSession) NotifyLastOccurrenceUpdate(identifier string, occurrence int) {
	s.lastOccurrences[identifier] = occurrence
}

// SkipItem ends the current attempt without responses and advances. The
// current session control must allow skipping.
func (s *AssessmentTestSession) SkipItem() error {
	sess, err := s.CurrentItemSession()
	if err != nil {
		return err
	}
	if !sess.Control.AllowSkipping {
		return &StateError{Op: "skip", State: sess.State.String(), Err: ErrSkipNotAllowed}
	}
	if sess.Attempting {
		if err := sess.EndAttempt(nil, nil, false); err != nil {
			return err
		}
	}
	return s.MoveNext()
}

// ===== NAVIGATION =====

// MoveNext advances the route cursor: branch rules of the current item
// are evaluated first-match-wins, otherwise the cursor moves one step. In
// linear mode, items whose pre-conditions fail are passed over. Exiting a
// simultaneous-mode test part flushes the staged responses; exhausting
// the route closes the session.
func (s *AssessmentTestSession) MoveNext() error {
	if s.State != TestStateInteracting {
		return &StateError{Op: "move next", State: s.State.String(), Err: ErrSessionNotInteracting}
	}
	current, err := s.Route.Current()
	if err != nil {
		return err
	}

	target, branched, err := s.branchTarget(current)
	if err != nil {
		return err
	}
	if branched {
		if err := s.Route.SetPosition(target); err != nil {
			return err
		}
	} else {
		s.Route.Next()
	}

	// Pass over linear-mode items whose pre-conditions do not hold.
	for s.Route.Valid() {
		ri, _ := s.Route.Current()
		if ri.TestPart.NavigationMode != models.NavigationLinear {
			break
		}
		ok, err := s.preConditionsHold(ri)
		if err != nil {
			return err
		}
		if ok {
			break
		}
		s.Route.Next()
	}

	if exitedPart := s.partExited(current); exitedPart != nil && exitedPart.SubmissionMode == models.SubmissionSimultaneous {
		if err := s.flushPending(); err != nil {
			return err
		}
	}

	if !s.Route.Valid() {
		return s.EndTestSession()
	}
	s.recordEntry()
	return nil
}

// MoveBack moves the cursor to the previous item. Backward movement is
// forbidden in linear navigation mode.
func (s *AssessmentTestSession) MoveBack() error {
	if s.State != TestStateInteracting {
		return &StateError{Op: "move back", State: s.State.String(), Err: ErrSessionNotInteracting}
	}
	if s.Route.IsNavigationLinear() {
		return ErrLinearNavigationOnly
	}
	if s.Route.Position() == 0 {
		return nil
	}
	s.Route.Previous()
	s.recordEntry()
	return nil
}

// JumpTo moves the cursor to an arbitrary route position. Jumps are
// forbidden in linear mode unless the session is configured to always
// allow them.
func (s *AssessmentTestSession) JumpTo(position int) error {
	if s.State != TestStateInteracting {
		return &StateError{Op: "jump", State: s.State.String(), Err: ErrSessionNotInteracting}
	}
	if s.Route.IsNavigationLinear() && s.Config&ConfigAlwaysAllowJumps == 0 {
		return ErrJumpNotAllowed
	}
	if err := s.Route.SetPosition(position); err != nil {
		return err
	}
	if !s.Route.Valid() {
		return s.EndTestSession()
	}
	s.recordEntry()
	return nil
}

// recordEntry books the current position into the path, marks the owning
// test part visited and makes sure the item session is begun.
func (s *AssessmentTestSession) recordEntry() {
	if !s.Route.Valid() {
		return
	}
	ri, _ := s.Route.Current()
	s.Path = append(s.Path, s.Route.Position())
	part := ri.TestPart.Identifier
	visited := false
	for _, v := range s.VisitedTestParts {
		if v == part {
			visited = true
			break
		}
	}
	if !visited {
		s.VisitedTestParts = append(s.VisitedTestParts, part)
	}
	if sess, ok := s.ItemSession(ri.ItemRef.Identifier, ri.Occurrence); ok {
		s.ensureBegun(sess)
	}
}

func (s *AssessmentTestSession) ensureBegun(is *AssessmentItemSession) {
	if !is.Begun {
		is.BeginItemSession()
	}
}

// partExited returns the test part of prev when the cursor has left it,
// nil otherwise.
func (s *AssessmentTestSession) partExited(prev *RouteItem) *models.TestPart {
	if !s.Route.Valid() {
		return prev.TestPart
	}
	ri, _ := s.Route.Current()
	if ri.TestPart != prev.TestPart {
		return prev.TestPart
	}
	return nil
}

// ===== BRANCHING & PRE-CONDITIONS =====

// branchTarget evaluates the route item's branch rules in order and
// resolves the first matching target to a route position strictly ahead
// of the cursor. Backward and self targets are rejected.
func (s *AssessmentTestSession) branchTarget(ri *RouteItem) (int, bool, error) {
	for _, br := range ri.BranchRules {
		if br.Expression == nil {
			continue
		}
		match, err := br.Expression.Evaluate(s)
		if err != nil {
			return 0, false, fmt.Errorf("branch rule on item %s: %w", ri.ItemRef.Identifier, err)
		}
		if !match {
			continue
		}
		pos, err := s.resolveBranchTarget(br.Target)
		if err != nil {
			return 0, false, fmt.Errorf("branch rule on item %s: %w", ri.ItemRef.Identifier, err)
		}
		return pos, true, nil
	}
	return 0, false, nil
}

// resolveBranchTarget maps a branch target identifier to a route
// position. Section and part targets resolve to their first item ahead of
// the cursor; the innermost owning section wins when identifiers nest.
func (s *AssessmentTestSession) resolveBranchTarget(target string) (int, error) {
	from := s.Route.Position()
	switch target {
	case models.BranchExitTest:
		return s.Route.Count(), nil
	case models.BranchExitTestPart:
		cur, _ := s.Route.Current()
		for pos := from + 1; pos < s.Route.Count(); pos++ {
			ri, _ := s.Route.ItemAt(pos)
			if ri.TestPart != cur.TestPart {
				return pos, nil
			}
		}
		return s.Route.Count(), nil
	case models.BranchExitSection:
		cur, _ := s.Route.Current()
		section := cur.Section()
		if section == nil {
			return s.Route.Count(), nil
		}
		for pos := from + 1; pos < s.Route.Count(); pos++ {
			ri, _ := s.Route.ItemAt(pos)
			if !ri.InSection(section.Identifier) {
				return pos, nil
			}
		}
		return s.Route.Count(), nil
	}

	// A named target: the first matching item, section or part ahead.
	for pos := from + 1; pos < s.Route.Count(); pos++ {
		ri, _ := s.Route.ItemAt(pos)
		if ri.ItemRef.Identifier == target || ri.TestPart.Identifier == target || ri.InSection(target) {
			return pos, nil
		}
	}
	// Distinguish a backward target from a target absent from the route.
	for pos := 0; pos <= from; pos++ {
		ri, _ := s.Route.ItemAt(pos)
		if ri.ItemRef.Identifier == target || ri.TestPart.Identifier == target || ri.InSection(target) {
			return 0, fmt.Errorf("target %s: %w", target, ErrBranchTargetBackward)
		}
	}
	return 0, fmt.Errorf("target %s: %w", target, ErrBranchTargetUnknown)
}

// preConditionsHold evaluates every pre-condition attached to the route
// item; all must pass.
func (s *AssessmentTestSession) preConditionsHold(ri *RouteItem) (bool, error) {
	for _, pc := range ri.PreConditions {
		if pc.Expression == nil {
			continue
		}
		ok, err := pc.Expression.Evaluate(s)
		if err != nil {
			return false, fmt.Errorf("pre-condition on item %s: %w", ri.ItemRef.Identifier, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// ===== PENDING RESPONSES =====

func (s *AssessmentTestSession) stagePending(ri *RouteItem, responses map[string]models.Value) {
	for _, p := range s.pending {
		if p.ItemRef == ri.ItemRef && p.Occurrence == ri.Occurrence {
			p.Responses = responses
			return
		}
	}
	s.pending = append(s.pending, &PendingResponses{
		ItemRef:    ri.ItemRef,
		Occurrence: ri.Occurrence,
		Responses:  responses,
	})
}

// flushPending applies every staged response set to its item session,
// runs the deferred response processing, and recomputes the test-level
// outcomes.
func (s *AssessmentTestSession) flushPending() error {
	if len(s.pending) == 0 {
		return nil
	}
	for _, p := range s.pending {
		sess, ok := s.ItemSession(p.ItemRef.Identifier, p.Occurrence)
		if !ok {
			return fmt.Errorf("pending responses for %s.%d: %w", p.ItemRef.Identifier, p.Occurrence, ErrUnknownItemRef)
		}
		for name, value := range p.Responses {
			if err := sess.SetResponseVariable(name, value); err != nil {
				return err
			}
		}
		if s.responseProcessor != nil {
			if err := s.responseProcessor.ProcessResponses(sess); err != nil {
				return fmt.Errorf("deferred response processing for item %s: %w", p.ItemRef.Identifier, err)
			}
		}
	}
	s.pending = nil
	return s.processOutcomes()
}

// PendingResponseSets returns the staged response sets in staging order.
func (s *AssessmentTestSession) PendingResponseSets() []*PendingResponses {
	return s.pending
}

// RestorePending reinstates staged responses from a persisted session.
func (s *AssessmentTestSession) RestorePending(p []*PendingResponses) {
	s.pending = p
}

func (s *AssessmentTestSession) processOutcomes() error {
	now := time.Now()
	s.LastProcessingTime = now
	if s.outcomeProcessor == nil {
		return nil
	}
	if err := s.outcomeProcessor.ProcessOutcomes(s); err != nil {
		return fmt.Errorf("outcome processing: %w", err)
	}
	return nil
}

// ===== VARIABLE RESOLUTION =====

// Variable resolves a scoped identifier non-strictly: the boolean is
// false when the identifier does not resolve, which readers treat as
// NULL. A bare identifier addresses the test-level scope; a prefixed one
// addresses an item session, sequence numbers 1-based.
func (s *AssessmentTestSession) Variable(identifier string) (models.Value, bool) {
	ref, err := ParseVariableRef(identifier)
	if err != nil {
		return models.Value{}, false
	}
	if ref.Global() {
		if v, ok := s.outcomes[ref.Name]; ok {
			return v.Value, true
		}
		if d, ok := s.durations[ref.Name]; ok {
			return models.NewSingle(models.NewDuration(d)), true
		}
		return models.Value{}, false
	}
	sess, ok := s.ItemSession(ref.Prefix, ref.OccurrenceIndex())
	if !ok {
		return models.Value{}, false
	}
	return sess.Variable(ref.Name)
}

// SetVariable writes through a scoped identifier, strictly: the variable
// must already exist, and sequence numbers are invalid in the test-level
// scope.
func (s *AssessmentTestSession) SetVariable(identifier string, value models.Value) error {
	ref, err := ParseVariableRef(identifier)
	if err != nil {
		return err
	}
	if ref.Global() {
		v, ok := s.outcomes[ref.Name]
		if !ok {
			return fmt.Errorf("outcome %s: %w", ref.Name, ErrUnknownVariable)
		}
		v.Value = value
		return nil
	}
	sess, ok := s.ItemSession(ref.Prefix, ref.OccurrenceIndex())
	if !ok {
		return fmt.Errorf("item %s occurrence %d: %w", ref.Prefix, ref.OccurrenceIndex(), ErrUnknownItemRef)
	}
	return sess.SetVariable(ref.Name, value)
}

// SetVariableRef writes through an already-parsed reference. A sequence
// number combined with the test-level scope is rejected.
func (s *AssessmentTestSession) SetVariableRef(ref VariableRef, value models.Value) error {
	if ref.Global() {
		if ref.Sequence != 0 {
			return ErrGlobalScopeSequenced
		}
		v, ok := s.outcomes[ref.Name]
		if !ok {
			return fmt.Errorf("outcome %s: %w", ref.Name, ErrUnknownVariable)
		}
		v.Value = value
		return nil
	}
	sess, ok := s.ItemSession(ref.Prefix, ref.OccurrenceIndex())
	if !ok {
		return fmt.Errorf("item %s occurrence %d: %w", ref.Prefix, ref.OccurrenceIndex(), ErrUnknownItemRef)
	}
	return sess.SetVariable(ref.Name, value)
}

// Weight resolves a prefixed weight identifier (item.weightName). The
// boolean sentinel is false when either the item or the weight does not
// exist; a missing weight is never an error.
func (s *AssessmentTestSession) Weight(identifier string) (float64, bool) {
	ref, err := ParseVariableRef(identifier)
	if err != nil || ref.Global() || ref.Sequence != 0 {
		return 0, false
	}
	if s.Route.OccurrenceCount(ref.Prefix) == 0 {
		return 0, false
	}
	ri, ok := s.Route.ItemOccurrence(ref.Prefix, 0)
	if !ok {
		return 0, false
	}
	return ri.ItemRef.Weight(ref.Name)
}

// ===== OUTCOMES, DURATIONS =====

// OutcomeNames returns the test-level outcome identifiers in declaration
// order.
func (s *AssessmentTestSession) OutcomeNames() []string { return s.outcomeOrder }

// Outcome returns the full test-level outcome record, nil when unknown.
func (s *AssessmentTestSession) Outcome(name string) *Variable { return s.outcomes[name] }

// Durations returns the duration store. The map is live; callers must
// not mutate it.
func (s *AssessmentTestSession) Durations() map[string]time.Duration { return s.durations }

// SetDuration writes one entry of the duration store.
func (s *AssessmentTestSession) SetDuration(name string, d time.Duration) {
	s.durations[name] = d
}

// AddElapsedTime accumulates candidate time against the test, the current
// test part and sections, and the current item session. Latency the
// delivery platform considers acceptable is deducted.
func (s *AssessmentTestSession) AddElapsedTime(elapsed time.Duration) {
	elapsed -= s.AcceptableLatency
	if elapsed <= 0 {
		return
	}
	s.durations[s.Test.Identifier] += elapsed
	if !s.Route.Valid() {
		return
	}
	ri, _ := s.Route.Current()
	s.durations[ri.TestPart.Identifier] += elapsed
	for _, sec := range ri.Sections {
		s.durations[sec.Identifier] += elapsed
	}
	if sess, ok := s.ItemSession(ri.ItemRef.Identifier, ri.Occurrence); ok {
		sess.AddDuration(elapsed)
	}
}

// MaxTimeExceeded reports whether any max-time limit on the chain of the
// current route item, the current test part or the test itself has been
// exceeded. Time limits are data, not preemption: callers poll this and
// force the appropriate transition.
func (s *AssessmentTestSession) MaxTimeExceeded() bool {
	if limits := s.Test.TimeLimits; limits != nil && limits.MaxTime != nil {
		if s.durations[s.Test.Identifier] >= *limits.MaxTime {
			return true
		}
	}
	if !s.Route.Valid() {
		return false
	}
	ri, _ := s.Route.Current()
	if limits := ri.TimeLimits(); limits != nil && limits.MaxTime != nil {
		sess, ok := s.ItemSession(ri.ItemRef.Identifier, ri.Occurrence)
		if ok && sess.Duration >= *limits.MaxTime {
			return true
		}
	}
	return false
}

// MinTimeSatisfied reports whether the current item's min-time constraint
// holds. Always true unless the session is configured to consider min
// times.
func (s *AssessmentTestSession) MinTimeSatisfied() bool {
	if s.Config&ConfigConsiderMinTime == 0 {
		return true
	}
	if !s.Route.Valid() {
		return true
	}
	ri, _ := s.Route.Current()
	limits := ri.TimeLimits()
	if limits == nil || limits.MinTime == nil {
		return true
	}
	sess, ok := s.ItemSession(ri.ItemRef.Identifier, ri.Occurrence)
	return ok && sess.Duration >= *limits.MinTime
}
