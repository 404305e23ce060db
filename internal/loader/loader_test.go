package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
	"github.com/SAP-F-2025/qti-delivery-service/internal/processing"
)

const fixtureDocument = `{
  "identifier": "T01",
  "title": "Loader Fixture",
  "timeLimits": {"maxSeconds": 1800},
  "outcomeDeclarations": [
    {"identifier": "SCORE", "baseType": "float", "cardinality": "single"}
  ],
  "testParts": [{
    "identifier": "P01",
    "navigationMode": "nonlinear",
    "submissionMode": "individual",
    "itemSessionControl": {"maxAttempts": 2, "allowSkipping": false},
    "sections": [{
      "identifier": "S01",
      "title": "Section One",
      "visible": false,
      "ordering": {"shuffle": true},
      "children": [
        {"itemRef": {
          "identifier": "Q01",
          "href": "q01.xml",
          "categories": ["math"],
          "weights": [{"identifier": "W1", "value": 2.5}],
          "preConditions": [{"const": true}],
          "item": {
            "identifier": "q01-item",
            "title": "Question 1",
            "responseProcessingTemplate": "map_response",
            "responseDeclarations": [{
              "identifier": "RESPONSE",
              "baseType": "identifier",
              "cardinality": "multiple",
              "correctResponse": ["A", "B"],
              "mapping": {
                "lowerBound": 0,
                "entries": [
                  {"mapKey": "A", "mappedValue": 1},
                  {"mapKey": "B", "mappedValue": 0.5}
                ]
              }
            }],
            "outcomeDeclarations": [
              {"identifier": "SCORE", "baseType": "float", "cardinality": "single", "defaultValue": ["0"]}
            ]
          }
        }},
        {"section": {
          "identifier": "S02",
          "title": "Nested",
          "children": [
            {"itemRef": {
              "identifier": "Q02",
              "href": "q02.xml",
              "branchRules": [{
                "target": "EXIT_TEST",
                "expression": {"and": [
                  {"match": {"identifier": "Q01.SCORE", "baseType": "float", "value": "1.5"}},
                  {"not": {"const": false}}
                ]}
              }],
              "item": {
                "identifier": "q02-item",
                "responseDeclarations": [
                  {"identifier": "RESPONSE", "baseType": "integer", "cardinality": "single", "correctResponse": ["4"]}
                ],
                "outcomeDeclarations": [
                  {"identifier": "SCORE", "baseType": "float", "cardinality": "single"}
                ],
                "responseProcessingTemplate": "match_correct"
              }
            }}
          ]
        }}
      ]
    }]
  }]
}`

func TestLoadTest(t *testing.T) {
	test, err := LoadTest([]byte(fixtureDocument))
	if err != nil {
		t.Fatalf("LoadTest() error = %v", err)
	}

	if test.Identifier != "T01" || test.Title != "Loader Fixture" {
		t.Errorf("test = %s %q", test.Identifier, test.Title)
	}
	if test.TimeLimits == nil || test.TimeLimits.MaxTime == nil || *test.TimeLimits.MaxTime != 30*time.Minute {
		t.Errorf("TimeLimits = %+v, want max 30m", test.TimeLimits)
	}
	if len(test.OutcomeDeclarations) != 1 || test.OutcomeDeclarations[0].Nature != models.NatureOutcome {
		t.Fatalf("outcome declarations = %+v", test.OutcomeDeclarations)
	}

	part := test.TestParts[0]
	if part.NavigationMode != models.NavigationNonLinear || part.SubmissionMode != models.SubmissionIndividual {
		t.Errorf("part modes = %v/%v", part.NavigationMode, part.SubmissionMode)
	}
	// Control overlays onto the defaults: untouched fields keep them.
	if part.ItemSessionControl.MaxAttempts != 2 || part.ItemSessionControl.AllowSkipping || !part.ItemSessionControl.AllowReview {
		t.Errorf("part control = %+v", part.ItemSessionControl)
	}

	section := part.Sections[0]
	if section.Visible {
		t.Error("Visible = true, want explicit false")
	}
	if !section.KeepTogether {
		t.Error("KeepTogether = false, want default true")
	}
	if section.Ordering == nil || !section.Ordering.Shuffle {
		t.Errorf("Ordering = %+v", section.Ordering)
	}

	ref := section.Children[0].ItemRef
	if ref.Identifier != "Q01" || ref.Href != "q01.xml" {
		t.Fatalf("ref = %+v", ref)
	}
	if w, ok := ref.Weight("W1"); !ok || w != 2.5 {
		t.Errorf("Weight(W1) = %v, %v", w, ok)
	}
	if len(ref.PreConditions) != 1 {
		t.Fatalf("preconditions = %+v", ref.PreConditions)
	}

	decl := ref.Item.ResponseDeclarations[0]
	if decl.Cardinality != models.CardinalityMultiple || decl.CorrectResponse == nil {
		t.Fatalf("RESPONSE declaration = %+v", decl)
	}
	want := models.NewMultiple(models.BTIdentifier, models.NewIdentifier("A"), models.NewIdentifier("B"))
	if !decl.CorrectResponse.Equal(want) {
		t.Errorf("correct response = %+v", decl.CorrectResponse)
	}
	if decl.Mapping == nil || len(decl.Mapping.Entries) != 2 || decl.Mapping.LowerBound == nil {
		t.Errorf("mapping = %+v", decl.Mapping)
	}

	nested := section.Children[1].Section
	if nested == nil || nested.Identifier != "S02" {
		t.Fatalf("nested section = %+v", nested)
	}
	q2 := nested.Children[0].ItemRef
	if len(q2.BranchRules) != 1 || q2.BranchRules[0].Target != "EXIT_TEST" {
		t.Fatalf("branch rules = %+v", q2.BranchRules)
	}
	and, ok := q2.BranchRules[0].Expression.(processing.AndExpression)
	if !ok || len(and.Operands) != 2 {
		t.Fatalf("expression = %#v", q2.BranchRules[0].Expression)
	}
	if _, ok := and.Operands[0].(processing.MatchExpression); !ok {
		t.Errorf("operand 0 = %#v, want match", and.Operands[0])
	}
	if _, ok := and.Operands[1].(processing.NotExpression); !ok {
		t.Errorf("operand 1 = %#v, want not", and.Operands[1])
	}
}

func TestLoadTestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := os.WriteFile(path, []byte(fixtureDocument), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	test, err := LoadTestFile(path)
	if err != nil {
		t.Fatalf("LoadTestFile() error = %v", err)
	}
	if test.Identifier != "T01" {
		t.Errorf("Identifier = %s, want T01", test.Identifier)
	}

	if _, err := LoadTestFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadTestFile() succeeded on a missing file")
	}
}

func TestLoadTestErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{
			name:    "not json",
			doc:     `{"identifier": `,
			wantMsg: "failed to parse",
		},
		{
			name:    "missing test identifier",
			doc:     `{"title": "x", "testParts": [{"identifier": "P01"}]}`,
			wantMsg: "missing identifier",
		},
		{
			name:    "no test parts",
			doc:     `{"identifier": "T01"}`,
			wantMsg: "no test parts",
		},
		{
			name: "bad navigation mode",
			doc: `{"identifier": "T01", "testParts": [
				{"identifier": "P01", "navigationMode": "sideways", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": []}]}]}`,
			wantMsg: "test part P01",
		},
		{
			name: "part without sections",
			doc: `{"identifier": "T01", "testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual"}]}`,
			wantMsg: "no sections",
		},
		{
			name: "child sets both forms",
			doc: `{"identifier": "T01", "testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": [
					{"section": {"identifier": "S02"}, "itemRef": {"identifier": "Q01"}}]}]}]}`,
			wantMsg: "both section and itemRef",
		},
		{
			name: "empty child",
			doc: `{"identifier": "T01", "testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": [{}]}]}]}`,
			wantMsg: "is empty",
		},
		{
			name: "item reference without item",
			doc: `{"identifier": "T01", "testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": [
					{"itemRef": {"identifier": "Q01"}}]}]}]}`,
			wantMsg: "carries no item definition",
		},
		{
			name: "single with two values",
			doc: `{"identifier": "T01",
				"outcomeDeclarations": [
					{"identifier": "SCORE", "baseType": "float", "cardinality": "single", "defaultValue": ["1", "2"]}],
				"testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": []}]}]}`,
			wantMsg: "exactly one value",
		},
		{
			name: "record declaration value",
			doc: `{"identifier": "T01",
				"outcomeDeclarations": [
					{"identifier": "INFO", "baseType": "string", "cardinality": "record", "defaultValue": ["x"]}],
				"testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": []}]}]}`,
			wantMsg: "record values are not supported",
		},
		{
			name: "negative time limit",
			doc: `{"identifier": "T01", "timeLimits": {"maxSeconds": -5}, "testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": []}]}]}`,
			wantMsg: "must not be negative",
		},
		{
			name: "empty expression",
			doc: `{"identifier": "T01", "testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": [
					{"itemRef": {"identifier": "Q01", "preConditions": [{}],
					 "item": {"identifier": "q01-item"}}}]}]}]}`,
			wantMsg: "none of const, match, not, and",
		},
		{
			name: "branch rule without target",
			doc: `{"identifier": "T01", "testParts": [
				{"identifier": "P01", "navigationMode": "linear", "submissionMode": "individual",
				 "sections": [{"identifier": "S01", "children": [
					{"itemRef": {"identifier": "Q01", "branchRules": [{"expression": {"const": true}}],
					 "item": {"identifier": "q01-item"}}}]}]}]}`,
			wantMsg: "branch rule missing target",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTest([]byte(tt.doc))
			if err == nil {
				t.Fatal("LoadTest() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.wantMsg)
			}
		})
	}
}
