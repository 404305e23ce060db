package runtime

import (
	"fmt"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// RouteBuilder turns a test's part/section tree into a flat Route, one
// fresh random selection and ordering per instantiation.
type RouteBuilder struct {
	selection *Selection
	ordering  *Ordering
}

// NewRouteBuilder builds a route builder whose selection and ordering
// share the given random source.
func NewRouteBuilder(rng Rand) *RouteBuilder {
	return &RouteBuilder{
		selection: NewSelection(rng),
		ordering:  NewOrdering(rng),
	}
}

// Build flattens the test into a route. A section whose selection rule
// cannot be satisfied aborts construction for the whole test; there is no
// partial route.
func (b *RouteBuilder) Build(test *models.AssessmentTest) (*Route, error) {
	route := NewRoute()
	for _, part := range test.TestParts {
		for _, section := range part.Sections {
			branch, err := b.buildSection(section, part, nil)
			if err != nil {
				return nil, fmt.Errorf("building route for test %s: %w", test.Identifier, err)
			}
			route.AppendRoute(branch.Route)
		}
	}
	return route, nil
}

// buildSection resolves a section post-order: children first, then
// selection, then ordering, then rule attachment. Branch rules of the
// section fire on exit and go to the last route item; pre-conditions gate
// entry to the whole subtree and go to every route item.
func (b *RouteBuilder) buildSection(section *models.AssessmentSection, part *models.TestPart, ancestry []*models.AssessmentSection) (*RouteBranch, error) {
	chain := make([]*models.AssessmentSection, len(ancestry), len(ancestry)+1)
	copy(chain, ancestry)
	chain = append(chain, section)

	children := make([]*RouteBranch, 0, len(section.Children))
	for _, child := range section.Children {
		switch {
		case child.ItemRef != nil:
			sub := NewRoute()
			sub.AddRouteItem(NewRouteItem(child.ItemRef, chain, part))
			children = append(children, &RouteBranch{
				Route:        sub,
				Fixed:        child.ItemRef.Fixed,
				Required:     child.ItemRef.Required,
				Visible:      true,
				KeepTogether: true,
			})
		case child.Section != nil:
			branch, err := b.buildSection(child.Section, part, chain)
			if err != nil {
				return nil, err
			}
			children = append(children, branch)
		}
	}

	selected, err := b.selection.Select(section, children)
	if err != nil {
		return nil, err
	}
	ordered, err := b.ordering.Order(section, selected)
	if err != nil {
		return nil, err
	}

	combined := NewRoute()
	for _, branch := range ordered {
		combined.AppendRoute(branch.Route)
	}

	// An empty section after selection has nothing to attach rules to.
	if combined.Count() > 0 {
		last, _ := combined.Last()
		last.BranchRules = append(last.BranchRules, section.BranchRules...)
		for _, ri := range combined.Items() {
			ri.PreConditions = append(ri.PreConditions, section.PreConditions...)
		}
	}

	return &RouteBranch{
		Route:        combined,
		Fixed:        section.Fixed,
		Required:     section.Required,
		Visible:      section.Visible,
		KeepTogether: section.KeepTogether,
	}, nil
}
