package runtime

import (
	"fmt"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// RouteBranch is one resolved child of a section during route building: a
// sub-route plus the presentation flags inherited from the child it was
// built from. Selection and ordering operate on branches before they are
// concatenated into the parent route.
type RouteBranch struct {
	Route *Route

	Fixed        bool
	Required     bool
	Visible      bool
	KeepTogether bool
}

// Selection draws a section's children per its selection rule. Stateless
// apart from the injected random source.
type Selection struct {
	rng Rand
}

// NewSelection builds a selection transformer around the given random
// source.
func NewSelection(rng Rand) *Selection {
	return &Selection{rng: rng}
}

// Select applies the section's selection rule to its resolved child
// branches. Without a rule the children pass through unmodified. Draws
// are uniform over the current pool; without replacement a drawn branch
// leaves the pool, with replacement the same branch may be drawn again
// (occurrence numbering distinguishes the repeats later). The result
// order is the draw order.
func (s *Selection) Select(section *models.AssessmentSection, children []*RouteBranch) ([]*RouteBranch, error) {
	rule := section.Selection
	if rule == nil {
		return children, nil
	}

	count := rule.Select
	if count > len(children) && !rule.WithReplacement {
		return nil, fmt.Errorf("section %s: select %d of %d children: %w",
			section.Identifier, count, len(children), ErrSelectionExceedsPool)
	}

	selected := make([]*RouteBranch, 0, count)
	if rule.WithReplacement {
		for i := 0; i < count; i++ {
			selected = append(selected, children[s.rng.Intn(len(children))])
		}
		return selected, nil
	}

	pool := append([]*RouteBranch(nil), children...)
	for i := 0; i < count; i++ {
		k := s.rng.Intn(len(pool))
		selected = append(selected, pool[k])
		pool = append(pool[:k], pool[k+1:]...)
	}
	return selected, nil
}
