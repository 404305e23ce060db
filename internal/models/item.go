package models

// VariableDeclaration declares one response, outcome or template variable
// together with its default value and, for responses, the correct
// response and mapping used by response processing.
type VariableDeclaration struct {
	Identifier  string
	Nature      VariableNature
	BaseType    BaseType
	Cardinality Cardinality

	DefaultValue    *Value
	CorrectResponse *Value
	Mapping         *Mapping
}

// Mapping maps response scalars to score contributions, as used by the
// map_response processing template.
type Mapping struct {
	LowerBound   *float64
	UpperBound   *float64
	DefaultValue float64
	Entries      []MapEntry
}

// MapEntry is one key/value pair of a mapping.
type MapEntry struct {
	MapKey        Scalar
	MappedValue   float64
	CaseSensitive bool
}

// Apply folds a response value through the mapping and clamps the result
// to the declared bounds.
func (m *Mapping) Apply(response Value) float64 {
	total := 0.0
	add := func(s Scalar) {
		for _, e := range m.Entries {
			if e.MapKey.Equal(s) {
				total += e.MappedValue
				return
			}
		}
		total += m.DefaultValue
	}
	switch response.Cardinality {
	case CardinalitySingle:
		if !response.IsNull() {
			add(response.Scalar)
		}
	case CardinalityMultiple, CardinalityOrdered:
		for _, s := range response.Values {
			if s != nil {
				add(*s)
			}
		}
	}
	if m.LowerBound != nil && total < *m.LowerBound {
		total = *m.LowerBound
	}
	if m.UpperBound != nil && total > *m.UpperBound {
		total = *m.UpperBound
	}
	return total
}

// AssessmentItem is the resolved definition of one assessment item: its
// variable declarations and processing characteristics. Interaction
// content is outside the runtime's concern.
type AssessmentItem struct {
	Identifier    string
	Title         string
	Adaptive      bool
	TimeDependent bool

	ResponseDeclarations []*VariableDeclaration
	OutcomeDeclarations  []*VariableDeclaration
	TemplateDeclarations []*VariableDeclaration

	// ResponseProcessingTemplate names the standard processing template
	// bound to this item ("match_correct", "map_response"), empty when the
	// item carries no response processing.
	ResponseProcessingTemplate string
}

// Declarations returns all variable declarations in nature order:
// responses, outcomes, templates.
func (i *AssessmentItem) Declarations() []*VariableDeclaration {
	out := make([]*VariableDeclaration, 0,
		len(i.ResponseDeclarations)+len(i.OutcomeDeclarations)+len(i.TemplateDeclarations))
	out = append(out, i.ResponseDeclarations...)
	out = append(out, i.OutcomeDeclarations...)
	out = append(out, i.TemplateDeclarations...)
	return out
}

// Declaration looks up a declaration of any nature by identifier.
func (i *AssessmentItem) Declaration(identifier string) *VariableDeclaration {
	for _, d := range i.Declarations() {
		if d.Identifier == identifier {
			return d
		}
	}
	return nil
}
