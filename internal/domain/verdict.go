package domain

import "time"

// CombinedVerdict is the aggregator's output: both workflows' terminal
// states plus the merged reliability decision. The aggregator owns
// read-only references to the states and never mutates them after the
// join.
type CombinedVerdict struct {
	// ID uniquely identifies this evaluation run (a UUID).
	ID string `json:"id"`

	// Paper is the document that was evaluated.
	Paper *Paper `json:"paper,omitempty"`

	// Verification is the claim-verification workflow's terminal state.
	Verification *VerificationState `json:"verification,omitempty"`

	// Review is the review workflow's terminal state.
	Review *ReviewState `json:"review,omitempty"`

	// IsReliable is the strict conjunction: the paper is factual and the
	// panel classified it "Publish". It is false whenever either input
	// is unset due to an upstream error.
	IsReliable bool `json:"is_reliable"`

	// OverallAssessment is a human-readable summary of the decision. It
	// is always renderable, even on partial failure.
	OverallAssessment string `json:"overall_assessment"`

	// TokenUsage is the merged cost of both workflows.
	TokenUsage TokenUsage `json:"token_usage"`

	// Timestamp records when the verdict was produced.
	Timestamp time.Time `json:"timestamp"`
}
