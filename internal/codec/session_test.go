package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/processing"
	"github.com/SAP-F-2025/qti-delivery-service/internal/runtime"
)

func fixtureRef(id, correct string) *models.AssessmentItemRef {
	cr := models.NewSingle(models.NewIdentifier(correct))
	return &models.AssessmentItemRef{
		Identifier: id,
		Href:       id + ".xml",
		Item: &models.AssessmentItem{
			Identifier: id + "-item",
			ResponseDeclarations: []*models.VariableDeclaration{{
				Identifier:      "RESPONSE",
				Nature:          models.NatureResponse,
				BaseType:        models.BTIdentifier,
				Cardinality:     models.CardinalitySingle,
				CorrectResponse: &cr,
			}},
			OutcomeDeclarations: []*models.VariableDeclaration{{
				Identifier:  "SCORE",
				Nature:      models.NatureOutcome,
				BaseType:    models.BTFloat,
				Cardinality: models.CardinalitySingle,
			}},
			ResponseProcessingTemplate: processing.TemplateMatchCorrect,
		},
	}
}

func fixtureTest(sub models.SubmissionMode) *models.AssessmentTest {
	section := models.NewAssessmentSection("S01", "Section One")
	q2 := fixtureRef("Q02", "B")
	q2.ItemSessionControl = &models.ItemSessionControl{MaxAttempts: 3, AllowSkipping: true, AllowReview: true}
	for _, ref := range []*models.AssessmentItemRef{fixtureRef("Q01", "A"), q2} {
		section.Children = append(section.Children, models.SectionPart{ItemRef: ref})
	}
	return &models.AssessmentTest{
		Identifier: "T01",
		Title:      "Codec Fixture",
		TestParts: []*models.TestPart{{
			Identifier:     "P01",
			NavigationMode: models.NavigationLinear,
			SubmissionMode: sub,
			Sections:       []*models.AssessmentSection{section},
		}},
		OutcomeDeclarations: []*models.VariableDeclaration{{
			Identifier:  "SCORE",
			Nature:      models.NatureOutcome,
			BaseType:    models.BTFloat,
			Cardinality: models.CardinalitySingle,
		}},
	}
}

func beginFixtureSession(t *testing.T, test *models.AssessmentTest) *runtime.AssessmentTestSession {
	t.Helper()
	route, err := runtime.NewRouteBuilder(runtime.NewSeededRand(1)).Build(test)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	s := runtime.NewAssessmentTestSession("sess-1", test, route,
		processing.NewEngine(), processing.NewWeightedScoreProcessor())
	if err := s.BeginTestSession(); err != nil {
		t.Fatalf("BeginTestSession() error = %v", err)
	}
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	test := fixtureTest(models.SubmissionIndividual)
	s := beginFixtureSession(t, test)

	if err := s.BeginAttempt(); err != nil {
		t.Fatalf("BeginAttempt() error = %v", err)
	}
	if err := s.EndAttempt(map[string]models.Value{
		"RESPONSE": models.NewSingle(models.NewIdentifier("A")),
	}); err != nil {
		t.Fatalf("EndAttempt() error = %v", err)
	}
	if err := s.MoveNext(); err != nil {
		t.Fatalf("MoveNext() error = %v", err)
	}
	s.AddElapsedTime(95 * time.Second)
	s.Config = runtime.ConfigConsiderMinTime

	codec := NewSessionCodec(test)
	data, err := codec.Encode(s)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := codec.Decode(data, s.SessionID, processing.NewEngine(), processing.NewWeightedScoreProcessor())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got.State != s.State {
		t.Errorf("State = %v, want %v", got.State, s.State)
	}
	if got.Route.Position() != s.Route.Position() {
		t.Errorf("Position = %d, want %d", got.Route.Position(), s.Route.Position())
	}
	if got.Config != s.Config {
		t.Errorf("Config = %d, want %d", got.Config, s.Config)
	}

	wantSeq := s.Route.IdentifierSequence()
	gotSeq := got.Route.IdentifierSequence()
	if len(gotSeq) != len(wantSeq) {
		t.Fatalf("route = %v, want %v", gotSeq, wantSeq)
	}
	for i := range wantSeq {
		if gotSeq[i] != wantSeq[i] {
			t.Errorf("route[%d] = %s, want %s", i, gotSeq[i], wantSeq[i])
		}
	}

	if len(got.Path) != len(s.Path) {
		t.Errorf("Path = %v, want %v", got.Path, s.Path)
	}
	if len(got.VisitedTestParts) != 1 || got.VisitedTestParts[0] != "P01" {
		t.Errorf("VisitedTestParts = %v", got.VisitedTestParts)
	}
	if got.TimeReference == nil || !got.TimeReference.Equal(*s.TimeReference) {
		t.Errorf("TimeReference = %v, want %v", got.TimeReference, s.TimeReference)
	}
	if !got.LastProcessingTime.Equal(s.LastProcessingTime) {
		t.Errorf("LastProcessingTime = %v, want %v", got.LastProcessingTime, s.LastProcessingTime)
	}

	// Item session state of the answered item.
	is, ok := got.ItemSession("Q01", 0)
	if !ok {
		t.Fatal("ItemSession(Q01, 0) missing after decode")
	}
	if is.NumAttempts != 1 || !is.Closed() || is.CompletionStatus != models.CompletionCompleted {
		t.Errorf("Q01 session = attempts %d state %v status %q", is.NumAttempts, is.State, is.CompletionStatus)
	}
	if v, _ := is.Variable("RESPONSE"); !v.Equal(models.NewSingle(models.NewIdentifier("A"))) {
		t.Errorf("Q01 RESPONSE = %+v", v)
	}
	if v, _ := is.Variable("SCORE"); !v.Equal(models.NewSingle(models.NewFloat(1))) {
		t.Errorf("Q01 SCORE = %+v", v)
	}
	if occ, ok := got.LastOccurrenceUpdate("Q01"); !ok || occ != 0 {
		t.Errorf("LastOccurrenceUpdate(Q01) = %d, %v", occ, ok)
	}

	// The resolved control reference survives for the overridden item.
	q2, _ := got.ItemSession("Q02", 0)
	if q2.ControlRef == nil || q2.Control.MaxAttempts != 3 {
		t.Errorf("Q02 control = %+v, ref %v", q2.Control, q2.ControlRef)
	}

	// Test-level outcome and duration store.
	if v, _ := got.Variable("SCORE"); !v.Equal(models.NewSingle(models.NewFloat(1))) {
		t.Errorf("test SCORE = %+v", v)
	}
	for _, name := range []string{"T01", "P01", "S01"} {
		if d := got.Durations()[name]; d != 95*time.Second {
			t.Errorf("duration %s = %v, want 95s", name, d)
		}
	}
}

func TestSessionRoundTripPendingResponses(t *testing.T) {
	test := fixtureTest(models.SubmissionSimultaneous)
	s := beginFixtureSession(t, test)

	if err := s.BeginAttempt(); err != nil {
		t.Fatalf("BeginAttempt() error = %v", err)
	}
	if err := s.EndAttempt(map[string]models.Value{
		"RESPONSE": models.NewSingle(models.NewIdentifier("A")),
	}); err != nil {
		t.Fatalf("EndAttempt() error = %v", err)
	}
	if len(s.PendingResponseSets()) != 1 {
		t.Fatalf("pending sets = %d, want 1", len(s.PendingResponseSets()))
	}

	codec := NewSessionCodec(test)
	data, err := codec.Encode(s)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := codec.Decode(data, s.SessionID, nil, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	pending := got.PendingResponseSets()
	if len(pending) != 1 {
		t.Fatalf("pending sets after decode = %d, want 1", len(pending))
	}
	p := pending[0]
	if p.ItemRef.Identifier != "Q01" || p.Occurrence != 0 {
		t.Errorf("pending for %s.%d, want Q01.0", p.ItemRef.Identifier, p.Occurrence)
	}
	if v := p.Responses["RESPONSE"]; !v.Equal(models.NewSingle(models.NewIdentifier("A"))) {
		t.Errorf("pending RESPONSE = %+v", v)
	}
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	test := fixtureTest(models.SubmissionIndividual)
	s := beginFixtureSession(t, test)

	codec := NewSessionCodec(test)
	data, err := codec.Encode(s)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	data[0] = FormatVersion + 1
	if _, err := codec.Decode(data, s.SessionID, nil, nil); err == nil ||
		!strings.Contains(err.Error(), "not supported") {
		t.Errorf("Decode() error = %v, want version rejection", err)
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	test := fixtureTest(models.SubmissionIndividual)
	s := beginFixtureSession(t, test)

	codec := NewSessionCodec(test)
	data, err := codec.Encode(s)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if _, err := codec.Decode(data[:len(data)/2], s.SessionID, nil, nil); err == nil {
		t.Error("Decode() accepted a truncated stream")
	}
}

func TestDecodeAgainstForeignDefinition(t *testing.T) {
	test := fixtureTest(models.SubmissionIndividual)
	s := beginFixtureSession(t, test)

	data, err := NewSessionCodec(test).Encode(s)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// A definition with fewer components cannot resolve the stored
	// positions.
	other := fixtureTest(models.SubmissionIndividual)
	other.TestParts[0].Sections[0].Children = other.TestParts[0].Sections[0].Children[:1]
	if _, err := NewSessionCodec(other).Decode(data, s.SessionID, nil, nil); err == nil {
		t.Error("Decode() accepted a stream from a different definition")
	}
}
