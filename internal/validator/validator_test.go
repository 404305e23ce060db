package validator

import (
	"testing"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

func TestValidateInstantiateSessionRequest(t *testing.T) {
	v := New()

	if errs := v.Validate(&InstantiateSessionRequest{CandidateID: "cand-1"}); errs != nil {
		t.Errorf("Validate() = %v, want nil", errs)
	}

	errs := v.Validate(&InstantiateSessionRequest{})
	if len(errs) != 1 {
		t.Fatalf("Validate() = %v, want one error", errs)
	}
	if errs[0].Field != "CandidateID" || errs[0].Rule != "required" {
		t.Errorf("error = %+v", errs[0])
	}
}

func TestValidateSubmitResponsesRequest(t *testing.T) {
	v := New()

	ok := &SubmitResponsesRequest{Responses: map[string]ResponsePayload{
		"RESPONSE": {Cardinality: "single", BaseType: "identifier", Values: []string{"A"}},
	}}
	if errs := v.Validate(ok); errs != nil {
		t.Errorf("Validate() = %v, want nil", errs)
	}

	tests := []struct {
		name string
		req  *SubmitResponsesRequest
	}{
		{"empty map", &SubmitResponsesRequest{}},
		{"bad cardinality", &SubmitResponsesRequest{Responses: map[string]ResponsePayload{
			"RESPONSE": {Cardinality: "plural", BaseType: "identifier"},
		}}},
		{"bad base type", &SubmitResponsesRequest{Responses: map[string]ResponsePayload{
			"RESPONSE": {Cardinality: "single", BaseType: "unicorn"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := v.Validate(tt.req); errs == nil {
				t.Error("Validate() accepted an invalid request")
			}
		})
	}
}

func TestValidateJumpAndTimeRequests(t *testing.T) {
	v := New()

	pos := 3
	if errs := v.Validate(&JumpRequest{Position: &pos}); errs != nil {
		t.Errorf("Validate(jump) = %v, want nil", errs)
	}
	if errs := v.Validate(&JumpRequest{}); errs == nil {
		t.Error("Validate() accepted a jump without a position")
	}
	neg := -1
	if errs := v.Validate(&JumpRequest{Position: &neg}); errs == nil {
		t.Error("Validate() accepted a negative position")
	}

	if errs := v.Validate(&AddTimeRequest{Seconds: 12.5}); errs != nil {
		t.Errorf("Validate(time) = %v, want nil", errs)
	}
	if errs := v.Validate(&AddTimeRequest{Seconds: 0}); errs == nil {
		t.Error("Validate() accepted zero elapsed seconds")
	}
}

func TestResponsePayloadToValue(t *testing.T) {
	tests := []struct {
		name    string
		payload ResponsePayload
		want    models.Value
		wantErr bool
	}{
		{
			name:    "single identifier",
			payload: ResponsePayload{Cardinality: "single", BaseType: "identifier", Values: []string{"choice_A"}},
			want:    models.NewSingle(models.NewIdentifier("choice_A")),
		},
		{
			name:    "empty values mean null",
			payload: ResponsePayload{Cardinality: "single", BaseType: "integer"},
			want:    models.NullValue(models.CardinalitySingle, models.BTInteger),
		},
		{
			name:    "multiple",
			payload: ResponsePayload{Cardinality: "multiple", BaseType: "identifier", Values: []string{"A", "B"}},
			want:    models.NewMultiple(models.BTIdentifier, models.NewIdentifier("A"), models.NewIdentifier("B")),
		},
		{
			name:    "ordered keeps order",
			payload: ResponsePayload{Cardinality: "ordered", BaseType: "integer", Values: []string{"3", "1"}},
			want:    models.NewOrdered(models.BTInteger, models.NewInteger(3), models.NewInteger(1)),
		},
		{
			name:    "record rejected",
			payload: ResponsePayload{Cardinality: "record", BaseType: "identifier", Values: []string{"A"}},
			wantErr: true,
		},
		{
			name:    "unparseable scalar",
			payload: ResponsePayload{Cardinality: "single", BaseType: "integer", Values: []string{"three"}},
			wantErr: true,
		},
		{
			name:    "bad cardinality",
			payload: ResponsePayload{Cardinality: "plural", BaseType: "identifier"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.payload.ToValue()
			if tt.wantErr {
				if err == nil {
					t.Error("ToValue() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ToValue() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ToValue() = %+v, want %+v", got, tt.want)
			}
			if got.Cardinality != tt.want.Cardinality || got.BaseType != tt.want.BaseType {
				t.Errorf("shape = %s/%s, want %s/%s", got.Cardinality, got.BaseType, tt.want.Cardinality, tt.want.BaseType)
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"SCORE", true},
		{"_hidden", true},
		{"Q-01", true},
		{"q01_b", true},
		{"", false},
		{"1SCORE", false},
		{"-lead", false},
		{"has space", false},
		{"dotted.name", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := isValidIdentifier(tt.in); got != tt.want {
				t.Errorf("isValidIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
