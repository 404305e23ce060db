package models

import "fmt"

// NavigationMode controls how a candidate moves between items inside a
// test part.
type NavigationMode string

const (
	NavigationLinear    NavigationMode = "linear"
	NavigationNonLinear NavigationMode = "nonlinear"
)

// SubmissionMode controls when responses inside a test part are submitted
// for response processing.
type SubmissionMode string

const (
	SubmissionIndividual   SubmissionMode = "individual"
	SubmissionSimultaneous SubmissionMode = "simultaneous"
)

// VariableNature distinguishes the three declaration families an item can
// carry.
type VariableNature string

const (
	NatureResponse VariableNature = "response"
	NatureOutcome  VariableNature = "outcome"
	NatureTemplate VariableNature = "template"
)

// Built-in completionStatus values.
const (
	CompletionNotAttempted = "not_attempted"
	CompletionUnknown      = "unknown"
	CompletionCompleted    = "completed"
	CompletionIncomplete   = "incomplete"
)

// ParseNavigationMode validates a raw navigation mode string.
func ParseNavigationMode(s string) (NavigationMode, error) {
	switch NavigationMode(s) {
	case NavigationLinear, NavigationNonLinear:
		return NavigationMode(s), nil
	}
	return "", fmt.Errorf("invalid navigation mode %q", s)
}

// ParseSubmissionMode validates a raw submission mode string.
func ParseSubmissionMode(s string) (SubmissionMode, error) {
	switch SubmissionMode(s) {
	case SubmissionIndividual, SubmissionSimultaneous:
		return SubmissionMode(s), nil
	}
	return "", fmt.Errorf("invalid submission mode %q", s)
}
