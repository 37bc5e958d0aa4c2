package surveycheck

import "context"

// Outcome is the result of validating a listing's survey number against the
// official registry.
type Outcome string

const (
	// OutcomePass means the registry confirmed the survey number.
	OutcomePass Outcome = "pass"
	// OutcomeFail means the registry rejected the survey number.
	OutcomeFail Outcome = "fail"
	// OutcomeUnavailable means the registry could not be reached in time.
	// Callers treat this the same as a failed check: the listing stays in the
	// manual review queue instead of being auto-rejected.
	OutcomeUnavailable Outcome = "unavailable"
)

// Checker validates a survey number with the external registry.
type Checker interface {
	Validate(ctx context.Context, surveyNumber string) Outcome
}
