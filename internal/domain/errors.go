package domain

import "errors"

// Errors of the terminal-workflow class: they halt the workflow that
// raised them but never the sibling workflow. Recoverable-degraded
// conditions (search tool failures, query fallbacks) are logged in the
// stages and deliberately have no sentinels here.
var (
	// ErrEmptyInput indicates that claim parsing produced zero claims.
	ErrEmptyInput = errors.New("no valid claims found in input")

	// ErrMissingQuery indicates the evidence-search stage ran before a
	// search query was derived for the current claim.
	ErrMissingQuery = errors.New("missing search query")

	// ErrMalformedPersona indicates the persona-generation response was
	// not a valid JSON object with the required fields.
	ErrMalformedPersona = errors.New("malformed reviewer persona response")

	// ErrMalformedQuestions indicates the question-generation response
	// could not be parsed as the required per-reviewer JSON map.
	ErrMalformedQuestions = errors.New("malformed questionnaire response")

	// ErrMalformedReview indicates a panel-review response was not valid
	// JSON.
	ErrMalformedReview = errors.New("malformed review response")

	// ErrIncompleteResponse indicates a structurally valid response was
	// missing a required key.
	ErrIncompleteResponse = errors.New("response missing required keys")

	// ErrMissingTemplate indicates a prompt template was absent from the
	// store. This is a fatal configuration error raised at startup.
	ErrMissingTemplate = errors.New("prompt template not found")
)
