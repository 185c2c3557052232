package domain

import "unicode/utf8"

// Score bounds for claim verification. ScoreUnverifiable is reserved for
// claims with no usable evidence; the scoring capability itself returns
// values in [ScoreMin, ScoreMax].
const (
	ScoreUnverifiable = 0
	ScoreMin          = 1
	ScoreMax          = 5
)

// MaxSnippetLen caps the content excerpt carried by an evidence snippet.
// Search results are compacted to this size before scoring to bound the
// prompt and the memory held per claim.
const MaxSnippetLen = 500

// EvidenceSnippet is one compacted search result used as grounding for
// claim scoring.
type EvidenceSnippet struct {
	// Title of the result as reported by the search tool.
	Title string `json:"title"`

	// URL of the source document.
	URL string `json:"url"`

	// Source tags which search tool produced this snippet.
	Source string `json:"source"`

	// Content is the excerpt, capped at MaxSnippetLen characters.
	Content string `json:"content"`
}

// Claim is one atomic factual assertion extracted from a paper's
// evidence text and independently fact-checked. A claim is created by
// the parse stage and mutated in place by the query-generation,
// evidence-search, and scoring stages; its evidence is discarded
// immediately after scoring.
type Claim struct {
	// Text is the claim as extracted, one per non-empty input line.
	Text string `json:"text"`

	// SearchQuery is the query derived from the claim text.
	SearchQuery string `json:"search_query,omitempty"`

	// Evidence holds the snippets gathered for this claim. It is cleared
	// once the claim has been scored.
	Evidence []EvidenceSnippet `json:"evidence,omitempty"`

	// Score is the Likert verification result: ScoreUnverifiable when no
	// evidence was found, otherwise a value in [ScoreMin, ScoreMax].
	Score int `json:"score"`

	// Scored reports whether the verification stage has committed a
	// score for this claim.
	Scored bool `json:"scored"`
}

// Truncate returns s capped at max bytes without splitting a rune.
// Search adapters and the evidence-search stage use it to enforce
// MaxSnippetLen.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
