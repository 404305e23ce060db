package processing

import (
	"fmt"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
)

// Standard response processing template names.
const (
	TemplateMatchCorrect = "match_correct"
	TemplateMapResponse  = "map_response"
)

// Conventional variable identifiers used by the standard templates.
const (
	ScoreIdentifier    = "SCORE"
	ResponseIdentifier = "RESPONSE"
)

// Engine is the response processing engine for the standard QTI
// templates. It satisfies runtime.ResponseProcessor.
type Engine struct{}

// NewEngine returns the standard-template processing engine.
func NewEngine() *Engine { return &Engine{} }

// ProcessResponses dispatches on the item's declared processing template
// and mutates the session's outcome variables. Items without a template
// are left untouched.
func (e *Engine) ProcessResponses(s *runtime.AssessmentItemSession) error {
	item := s.Item()
	if item == nil || item.ResponseProcessingTemplate == "" {
		return nil
	}
	switch item.ResponseProcessingTemplate {
	case TemplateMatchCorrect:
		return e.matchCorrect(s)
	case TemplateMapResponse:
		return e.mapResponse(s)
	}
	return fmt.Errorf("unknown response processing template %q on item %s",
		item.ResponseProcessingTemplate, item.Identifier)
}

// matchCorrect sets SCORE to 1 when every response variable carrying a
// correct response matches it, 0 otherwise.
func (e *Engine) matchCorrect(s *runtime.AssessmentItemSession) error {
	score := 1.0
	for _, name := range s.VariableNames() {
		v := s.Lookup(name)
		if v.Decl.Nature != models.NatureResponse {
			continue
		}
		correct := v.Correct()
		if correct == nil {
			continue
		}
		if !v.Value.Equal(*correct) {
			score = 0
			break
		}
	}
	return s.SetVariable(ScoreIdentifier, models.NewSingle(models.NewFloat(score)))
}

// mapResponse folds the RESPONSE variable through its declared mapping
// into SCORE.
func (e *Engine) mapResponse(s *runtime.AssessmentItemSession) error {
	v := s.Lookup(ResponseIdentifier)
	if v == nil || v.Decl.Mapping == nil {
		return fmt.Errorf("item %s: map_response requires a mapped RESPONSE declaration", s.ItemRef.Identifier)
	}
	score := v.Decl.Mapping.Apply(v.Value)
	return s.SetVariable(ScoreIdentifier, models.NewSingle(models.NewFloat(score)))
}

// WeightedScoreProcessor recomputes one test-level outcome as the
// weighted sum of an item outcome across every item session. It satisfies
// runtime.OutcomeProcessor.
type WeightedScoreProcessor struct {
	// OutcomeIdentifier is the test-level outcome written, ItemOutcome
	// the per-item outcome read, WeightIdentifier the item weight applied
	// when declared (weight 1 otherwise).
	OutcomeIdentifier string
	ItemOutcome       string
	WeightIdentifier  string
}

// NewWeightedScoreProcessor returns the conventional SCORE summer.
func NewWeightedScoreProcessor() *WeightedScoreProcessor {
	return &WeightedScoreProcessor{
		OutcomeIdentifier: ScoreIdentifier,
		ItemOutcome:       ScoreIdentifier,
		WeightIdentifier:  "WEIGHT",
	}
}

// ProcessOutcomes sums weighted item scores into the configured
// test-level outcome. Tests not declaring the outcome are left untouched.
func (p *WeightedScoreProcessor) ProcessOutcomes(ts *runtime.AssessmentTestSession) error {
	if ts.Outcome(p.OutcomeIdentifier) == nil {
		return nil
	}
	total := 0.0
	for _, ri := range ts.Route.Items() {
		sess, ok := ts.ItemSession(ri.ItemRef.Identifier, ri.Occurrence)
		if !ok {
			continue
		}
		value, ok := sess.Variable(p.ItemOutcome)
		if !ok || value.IsNull() || value.Cardinality != models.CardinalitySingle {
			continue
		}
		var score float64
		switch value.BaseType {
		case models.BTFloat:
			score = value.Scalar.Float
		case models.BTInteger:
			score = float64(value.Scalar.Integer)
		default:
			continue
		}
		weight := 1.0
		if w, ok := ri.ItemRef.Weight(p.WeightIdentifier); ok {
			weight = w
		}
		total += score * weight
	}
	return ts.SetVariableRef(runtime.VariableRef{Name: p.OutcomeIdentifier},
		models.NewSingle(models.NewFloat(total)))
}
