package runtime

// ResponseProcessor is the black-box response processing engine bound to
// an item: invoked at the end of an attempt, it reads the session's
// response variables and mutates its outcome variables, including
// completionStatus.
type ResponseProcessor interface {
	ProcessResponses(s *AssessmentItemSession) error
}

// OutcomeProcessor is the test-level counterpart: it recomputes the
// test-level outcome variables from the item sessions.
type OutcomeProcessor interface {
	ProcessOutcomes(s *AssessmentTestSession) error
}
