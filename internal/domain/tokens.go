package domain

// TokenUsage is a monotonically accumulated counter of tokens consumed
// by completion calls. It is purely observational: it never gates
// control flow, and it is only ever updated by the goroutine that owns
// the enclosing workflow state, so no synchronization is required.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add records one completion call's usage. Callers must add usage
// immediately after the call returns, before any parsing of the
// response, so that failed parses still account for their cost.
func (t *TokenUsage) Add(inputTokens, outputTokens int) {
	t.InputTokens += inputTokens
	t.OutputTokens += outputTokens
	t.TotalTokens = t.InputTokens + t.OutputTokens
}

// Merge sums another counter into this one.
func (t *TokenUsage) Merge(other TokenUsage) {
	t.Add(other.InputTokens, other.OutputTokens)
}
