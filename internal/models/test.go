package models

import "time"

// Expression is the narrow contract the runtime needs from the expression
// evaluator: pre-conditions and branch rules evaluate against the variable
// scope of the running session and yield a boolean. Concrete evaluators
// live outside the data model.
type Expression interface {
	Evaluate(scope VariableScope) (bool, error)
}

// VariableScope is read access to the variables visible where an
// expression is evaluated.
type VariableScope interface {
	Variable(identifier string) (Value, bool)
}

// PreCondition gates entry to an item, section or test part. All declared
// pre-conditions must evaluate true for the component to be presented.
type PreCondition struct {
	Expression Expression
}

// BranchRule redirects the flow when its expression evaluates true after
// a component is exited. Targets are item/section/part identifiers or one
// of the EXIT_* keywords.
type BranchRule struct {
	Target     string
	Expression Expression
}

// Branch rule special targets.
const (
	BranchExitTest     = "EXIT_TEST"
	BranchExitTestPart = "EXIT_TESTPART"
	BranchExitSection  = "EXIT_SECTION"
)

// ItemSessionControl carries the per-scope session control parameters.
// MaxAttempts 0 means unlimited.
type ItemSessionControl struct {
	MaxAttempts       int
	ShowFeedback      bool
	AllowReview       bool
	ShowSolution      bool
	AllowComment      bool
	AllowSkipping     bool
	ValidateResponses bool
}

// DefaultItemSessionControl returns the QTI defaults: one attempt, review
// allowed, skipping allowed.
func DefaultItemSessionControl() ItemSessionControl {
	return ItemSessionControl{
		MaxAttempts:   1,
		AllowReview:   true,
		AllowSkipping: true,
	}
}

// TimeLimits constrains the time a candidate may spend on a component.
// Nil pointers mean "no constraint".
type TimeLimits struct {
	MinTime             *time.Duration
	MaxTime             *time.Duration
	AllowLateSubmission bool
}

// Selection is the per-section rule for drawing a subset of the section's
// children at test instantiation time.
type Selection struct {
	Select          int
	WithReplacement bool
}

// Ordering is the per-section rule for shuffling the selected children.
type Ordering struct {
	Shuffle bool
}

// Weight is a named scoring weight attached to an item reference.
type Weight struct {
	Identifier string
	Value      float64
}

// AssessmentItemRef is the leaf of the section tree: a reference to one
// assessment item, together with the flags and rule overrides that apply
// to the item at this position in the test.
type AssessmentItemRef struct {
	Identifier string
	Href       string
	Categories []string

	Required     bool
	Fixed        bool
	Weights      []Weight
	VariableMaps map[string]string // sourceIdentifier -> targetIdentifier

	PreConditions      []*PreCondition
	BranchRules        []*BranchRule
	ItemSessionControl *ItemSessionControl
	TimeLimits         *TimeLimits

	// Item is the resolved item definition behind Href.
	Item *AssessmentItem
}

// Weight looks up a weight by identifier. The boolean reports whether the
// weight exists; a missing weight is not an error.
func (r *AssessmentItemRef) Weight(identifier string) (float64, bool) {
	for _, w := range r.Weights {
		if w.Identifier == identifier {
			return w.Value, true
		}
	}
	return 0, false
}

// SectionPart is one child slot of an assessment section: either a nested
// section or an item reference, never both.
type SectionPart struct {
	Section *AssessmentSection
	ItemRef *AssessmentItemRef
}

// Identifier returns the identifier of whichever variant is populated.
func (p SectionPart) Identifier() string {
	if p.Section != nil {
		return p.Section.Identifier
	}
	if p.ItemRef != nil {
		return p.ItemRef.Identifier
	}
	return ""
}

// AssessmentSection groups items and nested sections, optionally with
// selection and ordering rules applied per instantiation.
type AssessmentSection struct {
	Identifier string
	Title      string

	Visible      bool
	KeepTogether bool
	Required     bool
	Fixed        bool

	Selection *Selection
	Ordering  *Ordering

	PreConditions      []*PreCondition
	BranchRules        []*BranchRule
	ItemSessionControl *ItemSessionControl
	TimeLimits         *TimeLimits

	Children []SectionPart
}

// NewAssessmentSection builds a visible, keep-together section, the QTI
// defaults.
func NewAssessmentSection(identifier, title string) *AssessmentSection {
	return &AssessmentSection{
		Identifier:   identifier,
		Title:        title,
		Visible:      true,
		KeepTogether: true,
	}
}

// TestPart fixes the navigation and submission mode for a group of
// top-level sections.
type TestPart struct {
	Identifier     string
	NavigationMode NavigationMode
	SubmissionMode SubmissionMode

	PreConditions      []*PreCondition
	BranchRules        []*BranchRule
	ItemSessionControl *ItemSessionControl
	TimeLimits         *TimeLimits

	Sections []*AssessmentSection
}

// AssessmentTest is the root of the declarative test definition.
type AssessmentTest struct {
	Identifier string
	Title      string

	TestParts           []*TestPart
	OutcomeDeclarations []*VariableDeclaration
	TimeLimits          *TimeLimits
}

// TestPartByIdentifier returns the test part with the given identifier,
// or nil.
func (t *AssessmentTest) TestPartByIdentifier(identifier string) *TestPart {
	for _, p := range t.TestParts {
		if p.Identifier == identifier {
			return p
		}
	}
	return nil
}
