package validator

import (
	"fmt"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// ResponsePayload is the wire form of one candidate response. Values
// holds canonical string forms; a single-cardinality response uses the
// first entry and an empty list means NULL.
type ResponsePayload struct {
	Cardinality string   `json:"cardinality" validate:"required,cardinality"`
	BaseType    string   `json:"base_type" validate:"required,base_type"`
	Values      []string `json:"values" validate:"omitempty,max=200"`
}

// ToValue converts the payload to a runtime value.
func (p ResponsePayload) ToValue() (models.Value, error) {
	card, err := models.ParseCardinality(p.Cardinality)
	if err != nil {
		return models.Value{}, err
	}
	bt, err := models.ParseBaseType(p.BaseType)
	if err != nil {
		return models.Value{}, err
	}
	if card == models.CardinalityRecord {
		return models.Value{}, fmt.Errorf("record responses are not accepted over the API")
	}

	if len(p.Values) == 0 {
		return models.NullValue(card, bt), nil
	}

	if card == models.CardinalitySingle {
		s, err := models.ParseScalar(bt, p.Values[0])
		if err != nil {
			return models.Value{}, err
		}
		return models.NewSingle(s), nil
	}

	scalars := make([]models.Scalar, 0, len(p.Values))
	for _, raw := range p.Values {
		s, err := models.ParseScalar(bt, raw)
		if err != nil {
			return models.Value{}, err
		}
		scalars = append(scalars, s)
	}
	if card == models.CardinalityOrdered {
		return models.NewOrdered(bt, scalars...), nil
	}
	return models.NewMultiple(bt, scalars...), nil
}

// InstantiateSessionRequest starts delivery for one candidate
type InstantiateSessionRequest struct {
	CandidateID string `json:"candidate_id" validate:"required,max=255"`
}

// SubmitResponsesRequest carries the responses of one attempt
type SubmitResponsesRequest struct {
	Responses map[string]ResponsePayload `json:"responses" validate:"required,min=1,dive"`
}

// JumpRequest moves the route cursor in non-linear navigation
type JumpRequest struct {
	Position *int `json:"position" validate:"required,min=0"`
}

// AddTimeRequest reports elapsed candidate time in seconds
type AddTimeRequest struct {
	Seconds float64 `json:"seconds" validate:"required,gt=0"`
}

// VariableQueryRequest addresses one variable by its dotted form
type VariableQueryRequest struct {
	Identifier string `json:"identifier" validate:"required,max=512"`
}
