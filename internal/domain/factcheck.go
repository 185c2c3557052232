package domain

// FactualThreshold is the average score a paper must exceed for the
// claim-verification workflow to call it factual.
const FactualThreshold = 3.0

// VerificationState is the accumulator threaded through the
// claim-verification workflow. The workflow owns it exclusively for the
// duration of a run; stages mutate it in place and never run
// concurrently.
//
// Invariants, maintained by CommitScore and checked by tests:
//
//	0 <= CurrentIndex <= NoClaims
//	AverageScore == TotalScore / max(CurrentIndex, 1) while in progress
//	IsFactual == (AverageScore > FactualThreshold) only once complete
type VerificationState struct {
	// Paper is the document under evaluation.
	Paper *Paper `json:"paper,omitempty"`

	// Inputs is the raw extracted text the claims were parsed from.
	Inputs string `json:"inputs,omitempty"`

	// Claims holds the parsed claims in input order.
	Claims []Claim `json:"claims"`

	// CurrentIndex is the cursor into Claims. It advances only when a
	// claim's score is committed and never moves backwards.
	CurrentIndex int `json:"current_index"`

	// NoClaims is the total number of parsed claims.
	NoClaims int `json:"no_claims"`

	// Scores holds the per-claim scores, pre-sized at parse time.
	Scores []int `json:"scores"`

	// TotalScore is the running sum of committed scores.
	TotalScore int `json:"total_score"`

	// AverageScore is TotalScore over the number of committed claims.
	AverageScore float64 `json:"average_score"`

	// IsFactual is the verdict, meaningful only once the cursor has
	// reached NoClaims.
	IsFactual bool `json:"is_factual"`

	// TokenUsage accumulates completion-call cost across all stages.
	TokenUsage TokenUsage `json:"token_usage"`

	// Err is the terminal error, if any. Once set, every stage and the
	// continuation check short-circuit without mutating further.
	Err string `json:"errors,omitempty"`
}

// NewVerificationState builds the initial state for a run.
func NewVerificationState(paper *Paper, inputs string) *VerificationState {
	return &VerificationState{Paper: paper, Inputs: inputs}
}

// Current returns the claim under the cursor. It must only be called
// while the run is in progress.
func (s *VerificationState) Current() *Claim {
	return &s.Claims[s.CurrentIndex]
}

// Fail records a terminal error. The first error wins; later failures
// are ignored so the original cause is preserved.
func (s *VerificationState) Fail(msg string) {
	if s.Err == "" {
		s.Err = msg
	}
}

// Failed reports whether a terminal error has been recorded.
func (s *VerificationState) Failed() bool { return s.Err != "" }

// Complete reports whether every claim has been scored.
func (s *VerificationState) Complete() bool {
	return !s.Failed() && s.NoClaims > 0 && s.CurrentIndex >= s.NoClaims
}

// CommitScore records the score for the claim under the cursor,
// discards its evidence, advances the cursor, and recomputes the
// running average. When the cursor reaches NoClaims it also derives the
// final verdict. The commit is a no-op after a terminal error.
func (s *VerificationState) CommitScore(score int) {
	if s.Failed() || s.CurrentIndex >= s.NoClaims {
		return
	}

	claim := &s.Claims[s.CurrentIndex]
	claim.Score = score
	claim.Scored = true
	claim.Evidence = nil

	s.Scores[s.CurrentIndex] = score
	s.TotalScore += score
	s.CurrentIndex++

	divisor := s.CurrentIndex
	if divisor < 1 {
		divisor = 1
	}
	s.AverageScore = float64(s.TotalScore) / float64(divisor)

	if s.CurrentIndex == s.NoClaims {
		s.IsFactual = s.AverageScore > FactualThreshold
	}
}
