package domain

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParsedState(claims ...string) *VerificationState {
	state := NewVerificationState(nil, "")
	state.Claims = make([]Claim, len(claims))
	for i, text := range claims {
		state.Claims[i] = Claim{Text: text}
	}
	state.NoClaims = len(claims)
	state.Scores = make([]int, len(claims))
	return state
}

func TestCommitScoreAdvancesCursor(t *testing.T) {
	t.Parallel()

	state := newParsedState("a", "b", "c")

	for i, score := range []int{5, 1, 3} {
		assert.Equal(t, i, state.CurrentIndex)
		state.CommitScore(score)
		assert.Equal(t, i+1, state.CurrentIndex)
		assert.LessOrEqual(t, state.CurrentIndex, state.NoClaims)
	}

	assert.Equal(t, []int{5, 1, 3}, state.Scores)
	assert.Equal(t, 9, state.TotalScore)
	assert.InDelta(t, 3.0, state.AverageScore, 1e-9)
	assert.True(t, state.Complete())
}

func TestCommitScoreAverageConsistency(t *testing.T) {
	t.Parallel()

	state := newParsedState("a", "b", "c", "d")
	scores := []int{4, 2, 5, 1}

	total := 0
	for i, score := range scores {
		state.CommitScore(score)
		total += score
		assert.InDelta(t, float64(total)/float64(i+1), state.AverageScore, 1e-9)
	}
}

func TestCommitScoreVerdictOnlyAtCompletion(t *testing.T) {
	t.Parallel()

	state := newParsedState("a", "b")

	state.CommitScore(5)
	assert.False(t, state.IsFactual, "verdict must stay unset before completion")
	assert.False(t, state.Complete())

	state.CommitScore(5)
	assert.True(t, state.IsFactual)
	assert.True(t, state.Complete())
}

func TestCommitScoreThresholdIsStrict(t *testing.T) {
	t.Parallel()

	// An average of exactly 3 does not pass.
	atThreshold := newParsedState("a", "b")
	atThreshold.CommitScore(3)
	atThreshold.CommitScore(3)
	assert.False(t, atThreshold.IsFactual)

	above := newParsedState("a", "b")
	above.CommitScore(3)
	above.CommitScore(4)
	assert.True(t, above.IsFactual)
}

func TestCommitScoreDiscardsEvidence(t *testing.T) {
	t.Parallel()

	state := newParsedState("a")
	state.Claims[0].Evidence = []EvidenceSnippet{{Title: "t", Content: "c"}}

	state.CommitScore(4)

	require.True(t, state.Claims[0].Scored)
	assert.Equal(t, 4, state.Claims[0].Score)
	assert.Nil(t, state.Claims[0].Evidence)
}

func TestCommitScoreNoOpAfterFailure(t *testing.T) {
	t.Parallel()

	state := newParsedState("a", "b")
	state.CommitScore(5)
	state.Fail("boom")

	state.CommitScore(5)

	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, 5, state.TotalScore)
	assert.False(t, state.Complete())
}

func TestCommitScoreNoOpPastEnd(t *testing.T) {
	t.Parallel()

	state := newParsedState("a")
	state.CommitScore(2)
	state.CommitScore(5)

	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, 2, state.TotalScore)
}

func TestFailFirstErrorWins(t *testing.T) {
	t.Parallel()

	state := NewVerificationState(nil, "")
	state.Fail("first")
	state.Fail("second")

	assert.Equal(t, "first", state.Err)
	assert.True(t, state.Failed())
}

func TestCompleteRequiresClaims(t *testing.T) {
	t.Parallel()

	// Zero parsed claims is never a completed verification.
	state := NewVerificationState(nil, "")
	assert.False(t, state.Complete())
}

func TestTokenUsage(t *testing.T) {
	t.Parallel()

	var usage TokenUsage
	usage.Add(10, 4)
	usage.Add(5, 1)
	assert.Equal(t, TokenUsage{InputTokens: 15, OutputTokens: 5, TotalTokens: 20}, usage)

	var merged TokenUsage
	merged.Merge(usage)
	merged.Merge(TokenUsage{InputTokens: 1, OutputTokens: 1, TotalTokens: 2})
	assert.Equal(t, 22, merged.TotalTokens)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abcd", 2))
	assert.Equal(t, "abcd", Truncate("abcd", 0))

	// A cut inside a multi-byte rune backs up to the previous boundary.
	assert.Equal(t, "a", Truncate("aé", 2))
	assert.Equal(t, "aé", Truncate("aéz", 3))
	assert.Equal(t, "", Truncate("é", 1))
	assert.True(t, utf8.ValidString(Truncate("日本語の論文", 7)))
}
