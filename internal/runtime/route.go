package runtime

import (
	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// Route is the flattened, ordered sequence of item occurrences a
// candidate traverses in one test instantiation, with a cursor and
// derived lookup indices.
type Route struct {
	items    []*RouteItem
	position int

	// Derived indices, maintained incrementally on registration.
	byIdentifier map[string][]*RouteItem
	byCategory   map[string][]*RouteItem
	bySection    map[string][]*RouteItem
}

// NewRoute returns an empty route with the cursor at 0.
func NewRoute() *Route {
	return &Route{
		byIdentifier: make(map[string][]*RouteItem),
		byCategory:   make(map[string][]*RouteItem),
		bySection:    make(map[string][]*RouteItem),
	}
}

// AddRouteItem registers a route item, assigning its occurrence number as
// the count of prior registrations of the same item reference identifier.
func (r *Route) AddRouteItem(ri *RouteItem) {
	id := ri.ItemRef.Identifier
	ri.Occurrence = len(r.byIdentifier[id])
	r.items = append(r.items, ri)
	r.byIdentifier[id] = append(r.byIdentifier[id], ri)
	for _, c := range ri.ItemRef.Categories {
		r.byCategory[c] = append(r.byCategory[c], ri)
	}
	for _, s := range ri.Sections {
		r.bySection[s.Identifier] = append(r.bySection[s.Identifier], ri)
	}
}

// AppendRoute clones and re-registers every item of other in order, so
// occurrence numbers remain a running count across the combined route.
func (r *Route) AppendRoute(other *Route) {
	for _, ri := range other.items {
		r.AddRouteItem(ri.clone())
	}
}

// Count returns the number of route items.
func (r *Route) Count() int { return len(r.items) }

// Position returns the current cursor position, in [0, Count()].
func (r *Route) Position() int { return r.position }

// SetPosition moves the cursor. Count() is the valid-but-terminal
// past-end position.
func (r *Route) SetPosition(pos int) error {
	if pos < 0 || pos > len(r.items) {
		return ErrInvalidPosition
	}
	r.position = pos
	return nil
}

// Valid reports whether the cursor addresses a route item. It turns false
// once the route is exhausted.
func (r *Route) Valid() bool { return r.position < len(r.items) }

// Next advances the cursor. Advancing past the last item puts the route
// in the exhausted terminal state; it is not an error.
func (r *Route) Next() {
	if r.position < len(r.items) {
		r.position++
	}
}

// Previous moves the cursor back one position, saturating at 0.
func (r *Route) Previous() {
	if r.position > 0 {
		r.position--
	}
}

// Rewind resets the cursor to the start of the route.
func (r *Route) Rewind() { r.position = 0 }

// Current returns the route item under the cursor.
func (r *Route) Current() (*RouteItem, error) {
	return r.ItemAt(r.position)
}

// ItemAt returns the route item at the given position.
func (r *Route) ItemAt(pos int) (*RouteItem, error) {
	if pos < 0 || pos >= len(r.items) {
		return nil, ErrInvalidPosition
	}
	return r.items[pos], nil
}

// First returns the first route item. An empty route is a structural
// error, not a NULL lookup.
func (r *Route) First() (*RouteItem, error) {
	if len(r.items) == 0 {
		return nil, ErrEmptyRoute
	}
	return r.items[0], nil
}

// Last returns the last route item.
func (r *Route) Last() (*RouteItem, error) {
	if len(r.items) == 0 {
		return nil, ErrEmptyRoute
	}
	return r.items[len(r.items)-1], nil
}

// Items returns the route items in traversal order. The slice is shared;
// callers must not mutate it.
func (r *Route) Items() []*RouteItem { return r.items }

// OccurrenceCount returns how many occurrences of the item reference
// identifier the route holds.
func (r *Route) OccurrenceCount(identifier string) int {
	return len(r.byIdentifier[identifier])
}

// ItemOccurrence returns the route item for a given identifier and
// occurrence number. The boolean is false when no such occurrence exists.
func (r *Route) ItemOccurrence(identifier string, occurrence int) (*RouteItem, bool) {
	occs := r.byIdentifier[identifier]
	if occurrence < 0 || occurrence >= len(occs) {
		return nil, false
	}
	return occs[occurrence], true
}

// CurrentTestPart returns the test part owning the route item under the
// cursor, or nil when the route is exhausted.
func (r *Route) CurrentTestPart() *models.TestPart {
	if !r.Valid() {
		return nil
	}
	return r.items[r.position].TestPart
}

// IsNavigationLinear reports whether the current test part uses linear
// navigation. An exhausted route reports false.
func (r *Route) IsNavigationLinear() bool {
	p := r.CurrentTestPart()
	return p != nil && p.NavigationMode == models.NavigationLinear
}

// IsSubmissionIndividual reports whether the current test part uses
// individual submission. An exhausted route reports false.
func (r *Route) IsSubmissionIndividual() bool {
	p := r.CurrentTestPart()
	return p != nil && p.SubmissionMode == models.SubmissionIndividual
}

// IdentifierSequence returns every item reference identifier in route
// order, repeated per occurrence.
func (r *Route) IdentifierSequence() []string {
	out := make([]string, len(r.items))
	for i, ri := range r.items {
		out[i] = ri.ItemRef.Identifier
	}
	return out
}

// AssessmentItemRefsSubset returns the distinct item references of the
// route, optionally limited to a section and filtered by category. At
// most one of includeCategories/excludeCategories may be supplied;
// include intersects, exclude subtracts.
func (r *Route) AssessmentItemRefsSubset(sectionID string, includeCategories, excludeCategories []string) []*models.AssessmentItemRef {
	pool := r.items
	if sectionID != "" {
		pool = r.bySection[sectionID]
	}

	keep := func(ri *RouteItem) bool {
		if len(includeCategories) > 0 {
			for _, c := range includeCategories {
				if hasCategory(ri.ItemRef, c) {
					return true
				}
			}
			return false
		}
		for _, c := range excludeCategories {
			if hasCategory(ri.ItemRef, c) {
				return false
			}
		}
		return true
	}

	seen := make(map[string]bool)
	var out []*models.AssessmentItemRef
	for _, ri := range pool {
		if seen[ri.ItemRef.Identifier] || !keep(ri) {
			continue
		}
		seen[ri.ItemRef.Identifier] = true
		out = append(out, ri.ItemRef)
	}
	return out
}

// ItemsByCategory returns the route items carrying the given category, in
// route order.
func (r *Route) ItemsByCategory(category string) []*RouteItem {
	return r.byCategory[category]
}

// ItemsBySection returns the route items owned by the section, in route
// order.
func (r *Route) ItemsBySection(sectionID string) []*RouteItem {
	return r.bySection[sectionID]
}

func hasCategory(ref *models.AssessmentItemRef, category string) bool {
	for _, c := range ref.Categories {
		if c == category {
			return true
		}
	}
	return false
}
