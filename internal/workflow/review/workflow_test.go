package review

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
	"github.com/argus-eval/argus/internal/testutils"
)

func newTestWorkflow(llm *testutils.MockLLMClient) *Workflow {
	return New(Config{
		LLM:       llm,
		Retriever: &testutils.MockRetriever{Result: ports.RetrievalResult{Context: "paper passages"}},
		Prompts:   testutils.StaticPrompts{},
		Logger:    slog.Default(),
	})
}

func happyPathLLM() *testutils.MockLLMClient {
	return testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{
			Pattern:      "generate_reviewer",
			Response:     `{"id": 7, "specialisation": "time-series forecasting"}`,
			InputTokens:  40,
			OutputTokens: 12,
		}).
		AddResponse(testutils.MockResponse{
			Pattern:  "generate_questions",
			Response: `{"1": {"1": "Is the methodology sound?", "2": "Are baselines adequate?", "3": "Is the conclusion supported?"}, "2": {"1": "Is the data public?", "2": "Is the evaluation fair?", "3": "Are limitations discussed?"}}`,
		}).
		AddResponse(testutils.MockResponse{
			Pattern:  "generate_sub_queries",
			Response: `{"sub-queries": ["Does the paper describe its data split?", "Does the paper report variance?"]}`,
		}).
		AddResponse(testutils.MockResponse{Pattern: "answer_sub_query", Response: " YES\n"}).
		AddResponse(testutils.MockResponse{Pattern: "compile_answer", Response: "Yes, the paper supports this."}).
		AddResponse(testutils.MockResponse{
			Pattern:  "review_and_suggest",
			Response: `{"publishability": "Publish", "suggestions": "Tighten the abstract."}`,
		}).
		AddResponse(testutils.MockResponse{
			Pattern:  "summary",
			Response: `{"publishability": "Publish", "suggestions": "Panel agrees; minor revisions."}`,
		})
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	llm := happyPathLLM()
	wf := newTestWorkflow(llm)
	state := domain.NewReviewState(testutils.SamplePaper(), 2, 2)

	state, err := wf.Run(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, state.Reviewers, 2)
	assert.Equal(t, 1, state.Reviewers[0].ID)
	assert.Equal(t, 2, state.Reviewers[1].ID)
	assert.Equal(t, "time-series forecasting", state.Reviewers[0].Specialisation)
	assert.Equal(t, "Publish", state.Reviewers[0].Review)
	assert.Equal(t, "Tighten the abstract.", state.Reviewers[1].Suggestions)

	// One question per section, per reviewer.
	require.Len(t, state.Queries, 2)
	for _, perReviewer := range state.Queries {
		require.Len(t, perReviewer, 3)
		for _, query := range perReviewer {
			require.Len(t, query.SubQueries, 2)
			for _, pair := range query.SubQueries {
				assert.True(t, pair.Answer)
			}
			assert.Equal(t, "Yes, the paper supports this.", query.Answer)
		}
	}
	assert.Equal(t, "Is the data public?", state.Queries[1][0].Question)

	assert.Equal(t, "Publish", state.Publishability)
	assert.Equal(t, "Panel agrees; minor revisions.", state.Suggestions)
	assert.True(t, state.Complete())

	// 2 personas + 1 questionnaire + 6 decompositions + 12 answers +
	// 6 compilations + 2 reviews + 1 summary.
	assert.Equal(t, 30, llm.CallCount())
	assert.Equal(t, 80, state.TokenUsage.InputTokens)
}

func TestGenerateReviewersMalformedPersona(t *testing.T) {
	t.Parallel()

	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{
			Pattern:      "generate_reviewer",
			Response:     "I am a distinguished reviewer, not JSON.",
			InputTokens:  40,
			OutputTokens: 15,
		})

	wf := newTestWorkflow(llm)
	state := domain.NewReviewState(testutils.SamplePaper(), 3, 2)

	state, err := wf.Run(context.Background(), state)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedPersona)

	assert.Empty(t, state.Reviewers)
	assert.NotEmpty(t, state.Err)
	assert.False(t, state.Complete())
	// The failed call's tokens were accounted before parsing.
	assert.Equal(t, 40, state.TokenUsage.InputTokens)
	assert.Equal(t, 15, state.TokenUsage.OutputTokens)
	assert.Equal(t, 1, llm.CallCount())
}

func TestGenerateReviewersMissingSpecialisation(t *testing.T) {
	t.Parallel()

	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"id": 1}`})

	wf := newTestWorkflow(llm)
	_, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 1, 2))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteResponse)
}

func TestGenerateQuestionsMissingReviewerKey(t *testing.T) {
	t.Parallel()

	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"specialisation": "ml"}`}).
		AddResponse(testutils.MockResponse{Pattern: "generate_questions", Response: `{"1": {"1": "Is it sound?", "2": "Is it novel?", "3": "Is it clear?"}}`})

	wf := newTestWorkflow(llm)
	state, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 2, 2))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteResponse)
	assert.Nil(t, state.Queries)
}

func TestGenerateQuestionsWrongQuestionCount(t *testing.T) {
	t.Parallel()

	// Three sections demand three questions; the model only produced two.
	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"specialisation": "ml"}`}).
		AddResponse(testutils.MockResponse{Pattern: "generate_questions", Response: `{"1": {"1": "Is it sound?", "2": "Is it novel?"}}`})

	wf := newTestWorkflow(llm)
	state, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 1, 2))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteResponse)
	assert.Nil(t, state.Queries)
}

func TestGenerateQuestionsMalformedJSON(t *testing.T) {
	t.Parallel()

	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"specialisation": "ml"}`}).
		AddResponse(testutils.MockResponse{Pattern: "generate_questions", Response: "1. Is it sound?\n2. Is it novel?"})

	wf := newTestWorkflow(llm)
	_, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 1, 2))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedQuestions)
}

func TestGenerateSubQueriesSkipsUnparseable(t *testing.T) {
	t.Parallel()

	// Decomposition returns prose instead of JSON; the question is skipped
	// and the run still reaches a verdict.
	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"specialisation": "ml"}`}).
		AddResponse(testutils.MockResponse{
			Pattern:  "generate_questions",
			Response: `{"1": {"1": "Is the methodology sound?", "2": "Are baselines adequate?", "3": "Is the conclusion supported?"}}`,
		}).
		AddResponse(testutils.MockResponse{Pattern: "generate_sub_queries", Response: "Here are some sub-queries for you:"}).
		AddResponse(testutils.MockResponse{
			Pattern:  "review_and_suggest",
			Response: `{"publishability": "Reject", "suggestions": "Unanswerable questions."}`,
		}).
		AddResponse(testutils.MockResponse{
			Pattern:  "summary",
			Response: `{"publishability": "Reject", "suggestions": "Resubmit after revision."}`,
		})

	wf := newTestWorkflow(llm)
	state, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 1, 2))
	require.NoError(t, err)

	for _, query := range state.Queries[0] {
		assert.Empty(t, query.SubQueries)
		assert.Empty(t, query.Answer)
	}
	assert.Equal(t, "Reject", state.Publishability)
	assert.True(t, state.Complete())
	// No answer or compilation calls happened for skipped questions:
	// 1 persona + 1 questionnaire + 3 decompositions + 1 review + 1 summary.
	assert.Equal(t, 7, llm.CallCount())
}

func TestAnswerNormalisation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		response string
		want     bool
	}{
		{"YES", true},
		{"  yes  ", true},
		{"Yes.", false},
		{"NO", false},
		{"absolutely", false},
	}

	for _, tc := range cases {
		// The answer pattern comes first so it wins the substring match.
		llm := testutils.NewMockLLMClient("mock").
			AddResponse(testutils.MockResponse{Pattern: "answer_sub_query", Response: tc.response}).
			AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"specialisation": "ml"}`}).
			AddResponse(testutils.MockResponse{
				Pattern:  "generate_questions",
				Response: `{"1": {"1": "Is the methodology sound?", "2": "Are baselines adequate?", "3": "Is the conclusion supported?"}}`,
			}).
			AddResponse(testutils.MockResponse{Pattern: "generate_sub_queries", Response: `{"sub-queries": ["One?"]}`}).
			AddResponse(testutils.MockResponse{Pattern: "compile_answer", Response: "Compiled."}).
			AddResponse(testutils.MockResponse{Pattern: "review_and_suggest", Response: `{"publishability": "Publish", "suggestions": "ok"}`}).
			AddResponse(testutils.MockResponse{Pattern: "summary", Response: `{"publishability": "Publish", "suggestions": "ok"}`})

		wf := newTestWorkflow(llm)
		state, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 1, 1))
		require.NoError(t, err)
		assert.Equal(t, tc.want, state.Queries[0][0].SubQueries[0].Answer, "response %q", tc.response)
	}
}

func TestReviewAndSuggestMissingKeys(t *testing.T) {
	t.Parallel()

	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"specialisation": "ml"}`}).
		AddResponse(testutils.MockResponse{
			Pattern:  "generate_questions",
			Response: `{"1": {"1": "Q1", "2": "Q2", "3": "Q3"}}`,
		}).
		AddResponse(testutils.MockResponse{Pattern: "generate_sub_queries", Response: `{"sub-queries": ["One?"]}`}).
		AddResponse(testutils.MockResponse{Pattern: "answer_sub_query", Response: "yes"}).
		AddResponse(testutils.MockResponse{Pattern: "compile_answer", Response: "Compiled."}).
		AddResponse(testutils.MockResponse{Pattern: "review_and_suggest", Response: `{"publishability": "Publish"}`})

	wf := newTestWorkflow(llm)
	state, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 1, 1))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompleteResponse)
	assert.Empty(t, state.Publishability)
}

func TestSummariseMalformedLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"specialisation": "ml"}`}).
		AddResponse(testutils.MockResponse{
			Pattern:  "generate_questions",
			Response: `{"1": {"1": "Q1", "2": "Q2", "3": "Q3"}}`,
		}).
		AddResponse(testutils.MockResponse{Pattern: "generate_sub_queries", Response: `{"sub-queries": ["One?"]}`}).
		AddResponse(testutils.MockResponse{Pattern: "answer_sub_query", Response: "yes"}).
		AddResponse(testutils.MockResponse{Pattern: "compile_answer", Response: "Compiled."}).
		AddResponse(testutils.MockResponse{Pattern: "review_and_suggest", Response: `{"publishability": "Publish", "suggestions": "ok"}`}).
		AddResponse(testutils.MockResponse{Pattern: "summary", Response: "the panel broadly agrees"})

	wf := newTestWorkflow(llm)
	state, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 1, 1))

	require.NoError(t, err)
	assert.Empty(t, state.Publishability)
	assert.Empty(t, state.Suggestions)
	assert.Empty(t, state.Err)
	assert.False(t, state.Complete())
	// Per-reviewer verdicts survive even without a panel summary.
	assert.Equal(t, "Publish", state.Reviewers[0].Review)
}

func TestRunRetrieverFailureIsTerminal(t *testing.T) {
	t.Parallel()

	llm := testutils.NewMockLLMClient("mock").
		AddResponse(testutils.MockResponse{Pattern: "generate_reviewer", Response: `{"specialisation": "ml"}`}).
		AddResponse(testutils.MockResponse{
			Pattern:  "generate_questions",
			Response: `{"1": {"1": "Q1", "2": "Q2", "3": "Q3"}}`,
		}).
		AddResponse(testutils.MockResponse{Pattern: "generate_sub_queries", Response: `{"sub-queries": ["One?"]}`})

	wf := New(Config{
		LLM:       llm,
		Retriever: &testutils.MockRetriever{Err: errors.New("index corrupt")},
		Prompts:   testutils.StaticPrompts{},
		Logger:    slog.Default(),
	})

	state, err := wf.Run(context.Background(), domain.NewReviewState(testutils.SamplePaper(), 1, 1))
	require.Error(t, err)
	assert.Contains(t, state.Err, "index corrupt")
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wf := newTestWorkflow(happyPathLLM())
	state, err := wf.Run(ctx, domain.NewReviewState(testutils.SamplePaper(), 1, 1))

	require.ErrorIs(t, err, context.Canceled)
	assert.NotEmpty(t, state.Err)
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a": 1}`, stripFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripFences("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, stripFences(" {\"a\": 1} "))
}
