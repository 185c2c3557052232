package domain

// PublishVerdict is the publishability classification that, combined
// with a factual claim-verification result, makes a paper reliable.
const PublishVerdict = "Publish"

// Message is one entry in a workflow's prompt history, kept for
// auditability of the model exchanges that produced a verdict.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reviewer is a simulated review persona. It is created once at
// workflow start and its identity fields are never re-derived; the
// review/suggestion fields are filled by the panel stage.
type Reviewer struct {
	// ID numbers the reviewer within the panel, starting at 1.
	ID int `json:"id"`

	// Specialisation is the persona's area of expertise.
	Specialisation string `json:"specialisation"`

	// Questions are the top-level questions this reviewer asks.
	Questions []string `json:"questions,omitempty"`

	// Review is the reviewer's publishability classification.
	Review string `json:"review,omitempty"`

	// Suggestions is the reviewer's free-text improvement advice.
	Suggestions string `json:"suggestions,omitempty"`
}

// QAPair is one decomposed sub-question and its binary answer.
type QAPair struct {
	Query  string `json:"query"`
	Answer bool   `json:"answer"`
}

// SingleQuery is one reviewer-authored top-level question about the
// paper, its decomposed sub-queries, and the final compiled answer.
type SingleQuery struct {
	Question   string   `json:"question"`
	SubQueries []QAPair `json:"sub_queries,omitempty"`
	Answer     string   `json:"answer,omitempty"`
}

// ReviewState is the accumulator threaded through the review workflow.
// Queries is indexed [reviewer][question]; the outer dimension matches
// Reviewers.
type ReviewState struct {
	Messages []Message `json:"messages,omitempty"`

	Paper *Paper `json:"paper,omitempty"`

	// NumReviewers is the requested panel size.
	NumReviewers int `json:"num_reviewers"`

	// NumSubQueries is how many sub-questions each question decomposes into.
	NumSubQueries int `json:"num_subqueries"`

	Reviewers []Reviewer      `json:"reviewers"`
	Queries   [][]SingleQuery `json:"queries"`

	TokenUsage TokenUsage `json:"token_usage"`

	// Publishability is the paper-level verdict, unset until the
	// summarise stage succeeds.
	Publishability string `json:"publishability,omitempty"`

	// Suggestions is the paper-level improvement text.
	Suggestions string `json:"suggestions,omitempty"`

	// Err mirrors the terminal error the workflow returned, so the
	// aggregator can surface it as part of the combined result.
	Err string `json:"errors,omitempty"`
}

// NewReviewState builds the initial state for a run.
func NewReviewState(paper *Paper, numReviewers, numSubQueries int) *ReviewState {
	return &ReviewState{
		Paper:         paper,
		NumReviewers:  numReviewers,
		NumSubQueries: numSubQueries,
	}
}

// Complete reports whether the workflow produced a paper-level verdict.
func (s *ReviewState) Complete() bool {
	return s.Err == "" && s.Publishability != ""
}

// Append records a prompt exchange in the message history.
func (s *ReviewState) Append(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}
