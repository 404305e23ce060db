package runtime

import (
	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// Ordering shuffles a section's selected branches per its ordering rule,
// honoring fixed and keep-together constraints.
type Ordering struct {
	rng Rand
}

// NewOrdering builds an ordering transformer around the given random
// source.
func NewOrdering(rng Rand) *Ordering {
	return &Ordering{rng: rng}
}

// Order applies the section's ordering rule to the selected branches.
// Without a rule, or with shuffle off, the input passes through
// unchanged. Otherwise each invisible non-keep-together branch is first
// flattened into one single-item branch per leaf, so shuffling operates
// at item granularity for those; then the non-fixed slots are shuffled by
// pairwise swaps. Fixed branches never move.
func (o *Ordering) Order(section *models.AssessmentSection, selected []*RouteBranch) ([]*RouteBranch, error) {
	rule := section.Ordering
	if rule == nil || !rule.Shuffle {
		return selected, nil
	}

	slots := o.flatten(selected)

	var candidates []int
	for i, b := range slots {
		if !b.Fixed {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) < 2 {
		return slots, nil
	}

	// One random pairwise swap per shuffleable slot, both endpoints drawn
	// with replacement from the candidate set.
	for n := 0; n < len(candidates); n++ {
		i := candidates[o.rng.Intn(len(candidates))]
		j := candidates[o.rng.Intn(len(candidates))]
		slots[i], slots[j] = slots[j], slots[i]
	}
	return slots, nil
}

// flatten splits every invisible branch that does not keep together into
// one branch per leaf item, inheriting fixed/required from the leaf.
func (o *Ordering) flatten(selected []*RouteBranch) []*RouteBranch {
	out := make([]*RouteBranch, 0, len(selected))
	for _, b := range selected {
		if b.Visible || b.KeepTogether {
			out = append(out, b)
			continue
		}
		for _, ri := range b.Route.Items() {
			single := NewRoute()
			single.AddRouteItem(ri.clone())
			out = append(out, &RouteBranch{
				Route:        single,
				Fixed:        ri.ItemRef.Fixed,
				Required:     ri.ItemRef.Required,
				Visible:      true,
				KeepTogether: true,
			})
		}
	}
	return out
}
