package runtime

import (
	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// RouteItem is one occurrence of one item in the flattened route,
// together with its owning section chain and test part. Immutable once
// the route is finalized: the occurrence number is fixed at registration
// and rule attachments are fixed at route-build time.
type RouteItem struct {
	ItemRef  *models.AssessmentItemRef
	TestPart *models.TestPart

	// Sections is the owning section chain, outermost first.
	Sections []*models.AssessmentSection

	// Occurrence distinguishes repeated registrations of the same item
	// reference, 0-based in append order.
	Occurrence int

	// BranchRules fire on exit, first match wins. PreConditions gate
	// entry, all must pass. Both include rules attached by the route
	// builder on behalf of enclosing sections.
	BranchRules   []*models.BranchRule
	PreConditions []*models.PreCondition
}

// NewRouteItem builds a route item with an occurrence of 0. The owning
// route assigns the real occurrence number at registration.
func NewRouteItem(ref *models.AssessmentItemRef, sections []*models.AssessmentSection, part *models.TestPart) *RouteItem {
	ri := &RouteItem{
		ItemRef:  ref,
		TestPart: part,
		Sections: append([]*models.AssessmentSection(nil), sections...),
	}
	ri.BranchRules = append(ri.BranchRules, ref.BranchRules...)
	ri.PreConditions = append(ri.PreConditions, ref.PreConditions...)
	return ri
}

// clone copies the route item so a route can re-register it with its own
// occurrence number without aliasing rule slices.
func (ri *RouteItem) clone() *RouteItem {
	return &RouteItem{
		ItemRef:       ri.ItemRef,
		TestPart:      ri.TestPart,
		Sections:      append([]*models.AssessmentSection(nil), ri.Sections...),
		Occurrence:    ri.Occurrence,
		BranchRules:   append([]*models.BranchRule(nil), ri.BranchRules...),
		PreConditions: append([]*models.PreCondition(nil), ri.PreConditions...),
	}
}

// Section returns the innermost owning section, or nil for an item
// directly under a test part.
func (ri *RouteItem) Section() *models.AssessmentSection {
	if len(ri.Sections) == 0 {
		return nil
	}
	return ri.Sections[len(ri.Sections)-1]
}

// InSection reports whether the item belongs to the section with the
// given identifier at any nesting depth.
func (ri *RouteItem) InSection(identifier string) bool {
	for _, s := range ri.Sections {
		if s.Identifier == identifier {
			return true
		}
	}
	return false
}

// ItemSessionControl resolves the effective session control for this
// occurrence: the item reference override wins, then the innermost
// section carrying one, then the test part, then the QTI defaults.
func (ri *RouteItem) ItemSessionControl() models.ItemSessionControl {
	if ri.ItemRef.ItemSessionControl != nil {
		return *ri.ItemRef.ItemSessionControl
	}
	for i := len(ri.Sections) - 1; i >= 0; i-- {
		if ri.Sections[i].ItemSessionControl != nil {
			return *ri.Sections[i].ItemSessionControl
		}
	}
	if ri.TestPart != nil && ri.TestPart.ItemSessionControl != nil {
		return *ri.TestPart.ItemSessionControl
	}
	return models.DefaultItemSessionControl()
}

// TimeLimits resolves the effective time limits the same way, innermost
// override first. Nil means no limits apply anywhere on the chain.
func (ri *RouteItem) TimeLimits() *models.TimeLimits {
	if ri.ItemRef.TimeLimits != nil {
		return ri.ItemRef.TimeLimits
	}
	for i := len(ri.Sections) - 1; i >= 0; i-- {
		if ri.Sections[i].TimeLimits != nil {
			return ri.Sections[i].TimeLimits
		}
	}
	if ri.TestPart != nil {
		return ri.TestPart.TimeLimits
	}
	return nil
}
