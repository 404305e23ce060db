package processing

import (
	"testing"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
)

func itemRefWithTemplate(id, template string) *models.AssessmentItemRef {
	cr := models.NewSingle(models.NewIdentifier("A"))
	return &models.AssessmentItemRef{
		Identifier: id,
		Href:       id + ".xml",
		Item: &models.AssessmentItem{
			Identifier: id + "-item",
			ResponseDeclarations: []*models.VariableDeclaration{{
				Identifier:      ResponseIdentifier,
				Nature:          models.NatureResponse,
				BaseType:        models.BTIdentifier,
				Cardinality:     models.CardinalitySingle,
				CorrectResponse: &cr,
			}},
			OutcomeDeclarations: []*models.VariableDeclaration{{
				Identifier:  ScoreIdentifier,
				Nature:      models.NatureOutcome,
				BaseType:    models.BTFloat,
				Cardinality: models.CardinalitySingle,
			}},
			ResponseProcessingTemplate: template,
		},
	}
}

func attemptingSession(t *testing.T, ref *models.AssessmentItemRef) *runtime.AssessmentItemSession {
	t.Helper()
	part := &models.TestPart{
		Identifier:     "P01",
		NavigationMode: models.NavigationLinear,
		SubmissionMode: models.SubmissionIndividual,
	}
	s := runtime.NewAssessmentItemSession(runtime.NewRouteItem(ref, nil, part))
	s.BeginItemSession()
	if err := s.BeginAttempt(); err != nil {
		t.Fatalf("BeginAttempt() error = %v", err)
	}
	return s
}

func itemScore(t *testing.T, s *runtime.AssessmentItemSession) float64 {
	t.Helper()
	v, ok := s.Variable(ScoreIdentifier)
	if !ok || v.IsNull() {
		t.Fatalf("SCORE = %+v, %v", v, ok)
	}
	return v.Scalar.Float
}

func TestMatchCorrect(t *testing.T) {
	tests := []struct {
		name     string
		response *models.Value
		want     float64
	}{
		{"correct", valuePtr(models.NewSingle(models.NewIdentifier("A"))), 1},
		{"incorrect", valuePtr(models.NewSingle(models.NewIdentifier("B"))), 0},
		{"unanswered", nil, 0},
	}
	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := attemptingSession(t, itemRefWithTemplate("Q01", TemplateMatchCorrect))
			if tt.response != nil {
				if err := s.SetResponseVariable(ResponseIdentifier, *tt.response); err != nil {
					t.Fatalf("SetResponseVariable() error = %v", err)
				}
			}
			if err := engine.ProcessResponses(s); err != nil {
				t.Fatalf("ProcessResponses() error = %v", err)
			}
			if got := itemScore(t, s); got != tt.want {
				t.Errorf("SCORE = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapResponse(t *testing.T) {
	ref := itemRefWithTemplate("Q01", TemplateMapResponse)
	decl := ref.Item.ResponseDeclarations[0]
	decl.Cardinality = models.CardinalityMultiple
	decl.CorrectResponse = nil
	lower := 0.0
	decl.Mapping = &models.Mapping{
		LowerBound:   &lower,
		DefaultValue: -1,
		Entries: []models.MapEntry{
			{MapKey: models.NewIdentifier("A"), MappedValue: 2},
			{MapKey: models.NewIdentifier("B"), MappedValue: 0.5},
		},
	}
	engine := NewEngine()

	tests := []struct {
		name     string
		response models.Value
		want     float64
	}{
		{"both mapped", models.NewMultiple(models.BTIdentifier,
			models.NewIdentifier("A"), models.NewIdentifier("B")), 2.5},
		{"unknown key uses default", models.NewMultiple(models.BTIdentifier,
			models.NewIdentifier("A"), models.NewIdentifier("Z")), 1},
		{"lower bound clamps", models.NewMultiple(models.BTIdentifier,
			models.NewIdentifier("Z")), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := attemptingSession(t, ref)
			if err := s.SetResponseVariable(ResponseIdentifier, tt.response); err != nil {
				t.Fatalf("SetResponseVariable() error = %v", err)
			}
			if err := engine.ProcessResponses(s); err != nil {
				t.Fatalf("ProcessResponses() error = %v", err)
			}
			if got := itemScore(t, s); got != tt.want {
				t.Errorf("SCORE = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapResponseWithoutMapping(t *testing.T) {
	s := attemptingSession(t, itemRefWithTemplate("Q01", TemplateMapResponse))
	if err := NewEngine().ProcessResponses(s); err == nil {
		t.Error("ProcessResponses() accepted map_response without a mapping")
	}
}

func TestUnknownTemplate(t *testing.T) {
	s := attemptingSession(t, itemRefWithTemplate("Q01", "total_recall"))
	if err := NewEngine().ProcessResponses(s); err == nil {
		t.Error("ProcessResponses() accepted an unknown template")
	}
}

func TestNoTemplateIsNoOp(t *testing.T) {
	s := attemptingSession(t, itemRefWithTemplate("Q01", ""))
	if err := NewEngine().ProcessResponses(s); err != nil {
		t.Fatalf("ProcessResponses() error = %v", err)
	}
	// SCORE keeps its zero initialization, untouched by processing.
	if got := itemScore(t, s); got != 0 {
		t.Errorf("SCORE = %v, want 0", got)
	}
}

func TestWeightedScoreProcessor(t *testing.T) {
	section := models.NewAssessmentSection("S01", "Section One")
	q1 := itemRefWithTemplate("Q01", "")
	q1.Weights = []models.Weight{{Identifier: "WEIGHT", Value: 2}}
	q2 := itemRefWithTemplate("Q02", "")
	section.Children = []models.SectionPart{{ItemRef: q1}, {ItemRef: q2}}
	test := &models.AssessmentTest{
		Identifier: "T01",
		TestParts: []*models.TestPart{{
			Identifier:     "P01",
			NavigationMode: models.NavigationLinear,
			SubmissionMode: models.SubmissionIndividual,
			Sections:       []*models.AssessmentSection{section},
		}},
		OutcomeDeclarations: []*models.VariableDeclaration{{
			Identifier:  ScoreIdentifier,
			Nature:      models.NatureOutcome,
			BaseType:    models.BTFloat,
			Cardinality: models.CardinalitySingle,
		}},
	}

	route, err := runtime.NewRouteBuilder(runtime.NewSeededRand(1)).Build(test)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	ts := runtime.NewAssessmentTestSession("sess-1", test, route, NewEngine(), NewWeightedScoreProcessor())
	if err := ts.BeginTestSession(); err != nil {
		t.Fatalf("BeginTestSession() error = %v", err)
	}

	for id, score := range map[string]float64{"Q01": 1, "Q02": 0.5} {
		is, ok := ts.ItemSession(id, 0)
		if !ok {
			t.Fatalf("ItemSession(%s, 0) missing", id)
		}
		if err := is.SetVariable(ScoreIdentifier, models.NewSingle(models.NewFloat(score))); err != nil {
			t.Fatalf("SetVariable() error = %v", err)
		}
	}

	if err := NewWeightedScoreProcessor().ProcessOutcomes(ts); err != nil {
		t.Fatalf("ProcessOutcomes() error = %v", err)
	}
	// 1*2 + 0.5*1
	if got, _ := ts.Variable(ScoreIdentifier); !got.Equal(models.NewSingle(models.NewFloat(2.5))) {
		t.Errorf("test SCORE = %+v, want 2.5", got)
	}
}

func TestWeightedScoreProcessorWithoutOutcome(t *testing.T) {
	section := models.NewAssessmentSection("S01", "Section One")
	section.Children = []models.SectionPart{{ItemRef: itemRefWithTemplate("Q01", "")}}
	test := &models.AssessmentTest{
		Identifier: "T01",
		TestParts: []*models.TestPart{{
			Identifier:     "P01",
			NavigationMode: models.NavigationLinear,
			SubmissionMode: models.SubmissionIndividual,
			Sections:       []*models.AssessmentSection{section},
		}},
	}
	route, err := runtime.NewRouteBuilder(runtime.NewSeededRand(1)).Build(test)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	ts := runtime.NewAssessmentTestSession("sess-1", test, route, nil, nil)
	if err := ts.BeginTestSession(); err != nil {
		t.Fatalf("BeginTestSession() error = %v", err)
	}
	if err := NewWeightedScoreProcessor().ProcessOutcomes(ts); err != nil {
		t.Errorf("ProcessOutcomes() error = %v", err)
	}
}

// ===== EXPRESSIONS =====

type mapScope map[string]models.Value

func (m mapScope) Variable(name string) (models.Value, bool) {
	v, ok := m[name]
	return v, ok
}

func valuePtr(v models.Value) *models.Value { return &v }

func TestExpressionEvaluate(t *testing.T) {
	scope := mapScope{
		"SCORE": models.NewSingle(models.NewFloat(1.5)),
		"EMPTY": models.NullValue(models.CardinalitySingle, models.BTIdentifier),
	}
	match := MatchExpression{Identifier: "SCORE", Value: models.NewFloat(1.5)}

	tests := []struct {
		name string
		expr models.Expression
		want bool
	}{
		{"const true", ConstExpression{Value: true}, true},
		{"const false", ConstExpression{Value: false}, false},
		{"match hit", match, true},
		{"match miss", MatchExpression{Identifier: "SCORE", Value: models.NewFloat(2)}, false},
		{"match unknown variable", MatchExpression{Identifier: "NOPE", Value: models.NewFloat(1)}, false},
		{"match null variable", MatchExpression{Identifier: "EMPTY", Value: models.NewIdentifier("A")}, false},
		{"not", NotExpression{Operand: ConstExpression{Value: false}}, true},
		{"and all true", AndExpression{Operands: []models.Expression{match, ConstExpression{Value: true}}}, true},
		{"and short circuit", AndExpression{Operands: []models.Expression{ConstExpression{Value: false}, match}}, false},
		{"and empty", AndExpression{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.expr.Evaluate(scope)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
