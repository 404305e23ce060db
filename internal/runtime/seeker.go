package runtime

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

var (
	ErrComponentNotIndexed = errors.New("component not present in the test definition index")
	ErrPositionNotIndexed  = errors.New("position not present in the test definition index")
)

// Seeker is a flat, stable pre-order index of the static test definition
// tree. Both the in-memory session structures and the binary format store
// integer offsets into this index instead of serializing components by
// value, so a suspended session can be resumed against the same
// definition without re-parsing anything else.
type Seeker struct {
	components []any
	positions  map[any]int
}

// NewSeeker indexes the test definition. The traversal order is fixed:
// changing it invalidates every previously persisted session, so it is
// part of the binary format contract.
func NewSeeker(test *models.AssessmentTest) *Seeker {
	s := &Seeker{positions: make(map[any]int)}
	s.register(test)
	for _, d := range test.OutcomeDeclarations {
		s.register(d)
	}
	for _, part := range test.TestParts {
		s.registerPart(part)
	}
	return s
}

func (s *Seeker) registerPart(part *models.TestPart) {
	s.register(part)
	if part.ItemSessionControl != nil {
		s.register(part.ItemSessionControl)
	}
	for _, pc := range part.PreConditions {
		s.register(pc)
	}
	for _, br := range part.BranchRules {
		s.register(br)
	}
	for _, section := range part.Sections {
		s.registerSection(section)
	}
}

func (s *Seeker) registerSection(section *models.AssessmentSection) {
	s.register(section)
	if section.ItemSessionControl != nil {
		s.register(section.ItemSessionControl)
	}
	for _, pc := range section.PreConditions {
		s.register(pc)
	}
	for _, br := range section.BranchRules {
		s.register(br)
	}
	for _, child := range section.Children {
		switch {
		case child.ItemRef != nil:
			s.registerItemRef(child.ItemRef)
		case child.Section != nil:
			s.registerSection(child.Section)
		}
	}
}

func (s *Seeker) registerItemRef(ref *models.AssessmentItemRef) {
	s.register(ref)
	if ref.ItemSessionControl != nil {
		s.register(ref.ItemSessionControl)
	}
	for _, pc := range ref.PreConditions {
		s.register(pc)
	}
	for _, br := range ref.BranchRules {
		s.register(br)
	}
	if ref.Item != nil {
		for _, d := range ref.Item.Declarations() {
			s.register(d)
		}
	}
}

func (s *Seeker) register(c any) {
	if _, ok := s.positions[c]; ok {
		return
	}
	s.positions[c] = len(s.components)
	s.components = append(s.components, c)
}

// Position returns the index offset of a component.
func (s *Seeker) Position(c any) (int, error) {
	pos, ok := s.positions[c]
	if !ok {
		return 0, ErrComponentNotIndexed
	}
	return pos, nil
}

// Component returns the component at an index offset.
func (s *Seeker) Component(pos int) (any, error) {
	if pos < 0 || pos >= len(s.components) {
		return nil, fmt.Errorf("position %d: %w", pos, ErrPositionNotIndexed)
	}
	return s.components[pos], nil
}

// Count returns the number of indexed components.
func (s *Seeker) Count() int { return len(s.components) }

// ItemRefAt returns the item reference at an index offset.
func (s *Seeker) ItemRefAt(pos int) (*models.AssessmentItemRef, error) {
	c, err := s.Component(pos)
	if err != nil {
		return nil, err
	}
	ref, ok := c.(*models.AssessmentItemRef)
	if !ok {
		return nil, fmt.Errorf("position %d holds %T, not an item reference", pos, c)
	}
	return ref, nil
}

// TestPartAt returns the test part at an index offset.
func (s *Seeker) TestPartAt(pos int) (*models.TestPart, error) {
	c, err := s.Component(pos)
	if err != nil {
		return nil, err
	}
	part, ok := c.(*models.TestPart)
	if !ok {
		return nil, fmt.Errorf("position %d holds %T, not a test part", pos, c)
	}
	return part, nil
}

// SectionAt returns the section at an index offset.
func (s *Seeker) SectionAt(pos int) (*models.AssessmentSection, error) {
	c, err := s.Component(pos)
	if err != nil {
		return nil, err
	}
	sec, ok := c.(*models.AssessmentSection)
	if !ok {
		return nil, fmt.Errorf("position %d holds %T, not a section", pos, c)
	}
	return sec, nil
}

// BranchRuleAt returns the branch rule at an index offset.
func (s *Seeker) BranchRuleAt(pos int) (*models.BranchRule, error) {
	c, err := s.Component(pos)
	if err != nil {
		return nil, err
	}
	br, ok := c.(*models.BranchRule)
	if !ok {
		return nil, fmt.Errorf("position %d holds %T, not a branch rule", pos, c)
	}
	return br, nil
}

// PreConditionAt returns the pre-condition at an index offset.
func (s *Seeker) PreConditionAt(pos int) (*models.PreCondition, error) {
	c, err := s.Component(pos)
	if err != nil {
		return nil, err
	}
	pc, ok := c.(*models.PreCondition)
	if !ok {
		return nil, fmt.Errorf("position %d holds %T, not a pre-condition", pos, c)
	}
	return pc, nil
}

// DeclarationAt returns the variable declaration at an index offset.
func (s *Seeker) DeclarationAt(pos int) (*models.VariableDeclaration, error) {
	c, err := s.Component(pos)
	if err != nil {
		return nil, err
	}
	d, ok := c.(*models.VariableDeclaration)
	if !ok {
		return nil, fmt.Errorf("position %d holds %T, not a variable declaration", pos, c)
	}
	return d, nil
}

// ItemSessionControlAt returns the session control at an index offset.
func (s *Seeker) ItemSessionControlAt(pos int) (*models.ItemSessionControl, error) {
	c, err := s.Component(pos)
	if err != nil {
		return nil, err
	}
	isc, ok := c.(*models.ItemSessionControl)
	if !ok {
		return nil, fmt.Errorf("position %d holds %T, not an item session control", pos, c)
	}
	return isc, nil
}
