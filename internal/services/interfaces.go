package services

import (
	"context"

	"github.com/SAP-F-2025/qti-delivery-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type InstantiateSessionRequest = validator.InstantiateSessionRequest
type SubmitResponsesRequest = validator.SubmitResponsesRequest
type JumpRequest = validator.JumpRequest
type AddTimeRequest = validator.AddTimeRequest

// ItemView describes the item under the route cursor as the candidate
// is allowed to see it.
type ItemView struct {
	Identifier       string `json:"identifier"`
	Occurrence       int    `json:"occurrence"`
	Title            string `json:"title,omitempty"`
	Section          string `json:"section,omitempty"`
	State            string `json:"state"`
	NumAttempts      int    `json:"num_attempts"`
	MaxAttempts      int    `json:"max_attempts"`
	CompletionStatus string `json:"completion_status"`
	Attempting       bool   `json:"attempting"`
	AllowSkipping    bool   `json:"allow_skipping"`
	AllowReview      bool   `json:"allow_review"`
}

// SessionResponse is the state snapshot returned by every session
// operation.
type SessionResponse struct {
	SessionID            string              `json:"session_id"`
	TestIdentifier       string              `json:"test_identifier"`
	State                string              `json:"state"`
	RoutePosition        int                 `json:"route_position"`
	RouteLength          int                 `json:"route_length"`
	Exhausted            bool                `json:"exhausted"`
	NavigationLinear     bool                `json:"navigation_linear"`
	SubmissionIndividual bool                `json:"submission_individual"`
	VisitedTestParts     []string            `json:"visited_test_parts,omitempty"`
	CurrentItem          *ItemView           `json:"current_item,omitempty"`
	Outcomes             map[string][]string `json:"outcomes,omitempty"`
}

// VariableResponse is the result of a dotted-name variable lookup.
type VariableResponse struct {
	Identifier  string   `json:"identifier"`
	Cardinality string   `json:"cardinality"`
	BaseType    string   `json:"base_type,omitempty"`
	Null        bool     `json:"null"`
	Values      []string `json:"values,omitempty"`
}

// ===== SERVICE INTERFACES =====

type DeliveryService interface {
	// Session lifecycle
	StartSession(ctx context.Context, req *InstantiateSessionRequest) (*SessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*SessionResponse, error)
	SuspendSession(ctx context.Context, sessionID string) (*SessionResponse, error)
	ResumeSession(ctx context.Context, sessionID string) (*SessionResponse, error)
	EndSession(ctx context.Context, sessionID string) (*SessionResponse, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Attempts
	BeginAttempt(ctx context.Context, sessionID string) (*SessionResponse, error)
	EndAttempt(ctx context.Context, sessionID string, req *SubmitResponsesRequest) (*SessionResponse, error)
	SkipItem(ctx context.Context, sessionID string) (*SessionResponse, error)

	// Navigation
	MoveNext(ctx context.Context, sessionID string) (*SessionResponse, error)
	MoveBack(ctx context.Context, sessionID string) (*SessionResponse, error)
	JumpTo(ctx context.Context, sessionID string, req *JumpRequest) (*SessionResponse, error)

	// Time and variables
	AddElapsedTime(ctx context.Context, sessionID string, req *AddTimeRequest) (*SessionResponse, error)
	GetVariable(ctx context.Context, sessionID, identifier string) (*VariableResponse, error)
	GetOutcomes(ctx context.Context, sessionID string) (map[string][]string, error)
}

type ExportService interface {
	// ExportSessionReport renders the session as an xlsx workbook.
	ExportSessionReport(ctx context.Context, sessionID string) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Delivery() DeliveryService
	Export() ExportService

	// Health and lifecycle
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
