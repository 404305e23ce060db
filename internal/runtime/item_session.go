package runtime

import (
	"fmt"
	"time"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// ItemSessionState enumerates the item session state machine.
type ItemSessionState byte

const (
	ItemStateInitial ItemSessionState = iota
	ItemStateInteracting
	ItemStateModalFeedback
	ItemStateSuspended
	ItemStateClosed
	ItemStateSolution
	ItemStateReview
)

func (s ItemSessionState) String() string {
	switch s {
	case ItemStateInitial:
		return "initial"
	case ItemStateInteracting:
		return "interacting"
	case ItemStateModalFeedback:
		return "modalFeedback"
	case ItemStateSuspended:
		return "suspended"
	case ItemStateClosed:
		return "closed"
	case ItemStateSolution:
		return "solution"
	case ItemStateReview:
		return "review"
	}
	return "unknown"
}

// Built-in item variable names.
const (
	VarNumAttempts      = "numAttempts"
	VarDuration         = "duration"
	VarCompletionStatus = "completionStatus"
)

// Variable is one declared variable inside an item session: its
// declaration, current value, and the optional per-session overrides of
// the declared default and correct response.
type Variable struct {
	Decl  *models.VariableDeclaration
	Value models.Value

	DefaultOverride *models.Value
	CorrectOverride *models.Value
}

// Default returns the effective default value: the session override when
// present, the declared default otherwise.
func (v *Variable) Default() *models.Value {
	if v.DefaultOverride != nil {
		return v.DefaultOverride
	}
	return v.Decl.DefaultValue
}

// Correct returns the effective correct response the same way.
func (v *Variable) Correct() *models.Value {
	if v.CorrectOverride != nil {
		return v.CorrectOverride
	}
	return v.Decl.CorrectResponse
}

// AssessmentItemSession is the per-occurrence state machine tracking
// attempts, completion and variables for one item instance on the route.
type AssessmentItemSession struct {
	ItemRef    *models.AssessmentItemRef
	Occurrence int

	State          ItemSessionState
	NavigationMode models.NavigationMode
	SubmissionMode models.SubmissionMode
	Attempting     bool

	// Begun records whether BeginItemSession has run at least once; item
	// sessions outside the eagerly-begun linear prefix are begun on first
	// visit.
	Begun bool

	// Control is the resolved session control for this occurrence;
	// ControlRef points at the definition component it came from, nil when
	// the QTI defaults apply.
	Control    models.ItemSessionControl
	ControlRef *models.ItemSessionControl
	TimeLimits *models.TimeLimits

	NumAttempts      int
	Duration         time.Duration
	CompletionStatus string

	variables map[string]*Variable
	varOrder  []string
}

// NewAssessmentItemSession builds the session for one route item
// occurrence. Variables exist but hold no values until BeginItemSession.
func NewAssessmentItemSession(ri *RouteItem) *AssessmentItemSession {
	s := &AssessmentItemSession{
		ItemRef:          ri.ItemRef,
		Occurrence:       ri.Occurrence,
		State:            ItemStateInitial,
		Control:          ri.ItemSessionControl(),
		TimeLimits:       ri.TimeLimits(),
		CompletionStatus: models.CompletionNotAttempted,
		variables:        make(map[string]*Variable),
	}
	if ri.ItemRef.ItemSessionControl != nil {
		s.ControlRef = ri.ItemRef.ItemSessionControl
	}
	if ri.TestPart != nil {
		s.NavigationMode = ri.TestPart.NavigationMode
		s.SubmissionMode = ri.TestPart.SubmissionMode
	}
	if item := ri.ItemRef.Item; item != nil {
		for _, d := range item.Declarations() {
			s.variables[d.Identifier] = &Variable{
				Decl:  d,
				Value: models.NullValue(d.Cardinality, d.BaseType),
			}
			s.varOrder = append(s.varOrder, d.Identifier)
		}
	}
	return s
}

// Item returns the resolved item definition.
func (s *AssessmentItemSession) Item() *models.AssessmentItem {
	return s.ItemRef.Item
}

// BeginItemSession (re)initializes the session: outcomes to their default
// (zero for single numeric types without one, NULL otherwise), responses
// and templates to their default or NULL, built-ins to their starting
// values, state to initial.
func (s *AssessmentItemSession) BeginItemSession() {
	for _, name := range s.varOrder {
		v := s.variables[name]
		switch v.Decl.Nature {
		case models.NatureOutcome:
			if d := v.Default(); d != nil {
				v.Value = *d
			} else {
				v.Value = models.ZeroValue(v.Decl.Cardinality, v.Decl.BaseType)
			}
		case models.NatureTemplate:
			if d := v.Default(); d != nil {
				v.Value = *d
			} else {
				v.Value = models.NullValue(v.Decl.Cardinality, v.Decl.BaseType)
			}
		default:
			v.Value = models.NullValue(v.Decl.Cardinality, v.Decl.BaseType)
		}
	}
	s.NumAttempts = 0
	s.Duration = 0
	s.CompletionStatus = models.CompletionNotAttempted
	s.State = ItemStateInitial
	s.Attempting = false
	s.Begun = true
}

// BeginAttempt starts a new attempt. It fails once the session is
// completed, and for non-adaptive items once maxAttempts is exhausted;
// numAttempts never exceeds maxAttempts. On the first attempt the
// declared response defaults are applied.
func (s *AssessmentItemSession) BeginAttempt() error {
	if s.CompletionStatus == models.CompletionCompleted {
		return &StateError{Op: "begin attempt", State: s.State.String(), Err: ErrSessionCompleted}
	}
	adaptive := s.Item() != nil && s.Item().Adaptive
	if !adaptive && s.Control.MaxAttempts > 0 && s.NumAttempts >= s.Control.MaxAttempts {
		return &StateError{Op: "begin attempt", State: s.State.String(), Err: ErrMaxAttemptsReached}
	}

	if s.NumAttempts == 0 {
		for _, name := range s.varOrder {
			v := s.variables[name]
			if v.Decl.Nature == models.NatureResponse {
				if d := v.Default(); d != nil {
					v.Value = *d
				}
			}
		}
	}

	s.NumAttempts++
	s.State = ItemStateInteracting
	s.Attempting = true
	return nil
}

// EndAttempt closes the running attempt. Supplied responses overwrite the
// named response variables first; response processing then runs unless
// suppressed (simultaneous submission defers it). Adaptive items close on
// completion; non-adaptive items close when attempts run out and are
// forced to completed regardless of what processing computed.
func (s *AssessmentItemSession) EndAttempt(responses map[string]models.Value, processor ResponseProcessor, runProcessing bool) error {
	if !s.Attempting {
		return &StateError{Op: "end attempt", State: s.State.String(), Err: ErrAttemptNotStarted}
	}
	for name, value := range responses {
		if err := s.SetResponseVariable(name, value); err != nil {
			return err
		}
	}
	if runProcessing && processor != nil {
		if err := processor.ProcessResponses(s); err != nil {
			return fmt.Errorf("response processing for item %s: %w", s.ItemRef.Identifier, err)
		}
	}

	adaptive := s.Item() != nil && s.Item().Adaptive
	switch {
	case adaptive:
		if s.CompletionStatus == models.CompletionCompleted {
			s.EndItemSession()
		}
	default:
		if s.Control.MaxAttempts > 0 && s.NumAttempts >= s.Control.MaxAttempts {
			s.EndItemSession()
			s.CompletionStatus = models.CompletionCompleted
		}
	}
	s.Attempting = false
	return nil
}

// EndItemSession closes the session unconditionally.
func (s *AssessmentItemSession) EndItemSession() {
	s.State = ItemStateClosed
	s.Attempting = false
}

// Suspend parks an interacting session.
func (s *AssessmentItemSession) Suspend() error {
	if s.State != ItemStateInteracting {
		return &StateError{Op: "suspend", State: s.State.String(), Err: ErrSessionNotInteracting}
	}
	s.State = ItemStateSuspended
	return nil
}

// Closed reports whether the session is in its terminal state.
func (s *AssessmentItemSession) Closed() bool { return s.State == ItemStateClosed }

// AddDuration accumulates candidate time on the session's built-in
// duration variable.
func (s *AssessmentItemSession) AddDuration(d time.Duration) {
	if d > 0 {
		s.Duration += d
	}
}

// Variable resolves a variable by name, built-ins included. The boolean
// is false for unknown names.
func (s *AssessmentItemSession) Variable(name string) (models.Value, bool) {
	switch name {
	case VarNumAttempts:
		return models.NewSingle(models.NewInteger(int64(s.NumAttempts))), true
	case VarDuration:
		return models.NewSingle(models.NewDuration(s.Duration)), true
	case VarCompletionStatus:
		return models.NewSingle(models.NewIdentifier(s.CompletionStatus)), true
	}
	if v, ok := s.variables[name]; ok {
		return v.Value, true
	}
	return models.Value{}, false
}

// SetVariable writes a declared variable or completionStatus. Writing to
// an unknown name is an error: sessions never auto-vivify variables.
func (s *AssessmentItemSession) SetVariable(name string, value models.Value) error {
	if name == VarCompletionStatus {
		if value.Cardinality != models.CardinalitySingle || value.BaseType != models.BTIdentifier {
			return fmt.Errorf("completionStatus must be a single identifier")
		}
		s.CompletionStatus = value.Scalar.String
		return nil
	}
	v, ok := s.variables[name]
	if !ok {
		return fmt.Errorf("item %s variable %s: %w", s.ItemRef.Identifier, name, ErrUnknownVariable)
	}
	v.Value = value
	return nil
}

// SetResponseVariable writes a response variable, rejecting names that do
// not name a declared response.
func (s *AssessmentItemSession) SetResponseVariable(name string, value models.Value) error {
	v, ok := s.variables[name]
	if !ok || v.Decl.Nature != models.NatureResponse {
		return fmt.Errorf("item %s response %s: %w", s.ItemRef.Identifier, name, ErrUnknownVariable)
	}
	v.Value = value
	return nil
}

// Lookup returns the full variable record by name, nil for built-ins and
// unknown names.
func (s *AssessmentItemSession) Lookup(name string) *Variable {
	return s.variables[name]
}

// VariableNames returns the declared variable names in declaration order.
func (s *AssessmentItemSession) VariableNames() []string {
	return s.varOrder
}
