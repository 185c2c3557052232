package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/argus-eval/argus/internal/domain"
)

// verdictResponse is the shape both panel-verdict prompts demand.
type verdictResponse struct {
	Publishability *string `json:"publishability"`
	Suggestions    *string `json:"suggestions"`
}

// reviewAndSuggest collects each reviewer's verdict: one model call per
// reviewer, fed that reviewer's questions and compiled answers. This
// output feeds the final panel decision, so a malformed or incomplete
// response is terminal rather than skipped.
func (w *Workflow) reviewAndSuggest(ctx context.Context, state *domain.ReviewState) error {
	for r := range state.Reviewers {
		if err := ctx.Err(); err != nil {
			return err
		}
		reviewer := &state.Reviewers[r]

		response, err := w.complete(ctx, state, "review_and_suggest", map[string]string{
			"queries": describeAnswers(state.Queries[r]),
		})
		if err != nil {
			return fmt.Errorf("reviewer %d: %w", reviewer.ID, err)
		}

		var verdict verdictResponse
		if err := decodeObject(response, &verdict); err != nil {
			return fmt.Errorf("reviewer %d: %w: %v", reviewer.ID, domain.ErrMalformedReview, err)
		}
		if verdict.Publishability == nil || verdict.Suggestions == nil {
			return fmt.Errorf("reviewer %d: %w", reviewer.ID, domain.ErrIncompleteResponse)
		}

		reviewer.Review = *verdict.Publishability
		reviewer.Suggestions = *verdict.Suggestions
	}

	w.countOperation("reviews_collected_total", map[string]string{"workflow": WorkflowName})
	return nil
}

// summarise merges the panel's verdicts into the paper-level decision.
// Unlike reviewAndSuggest, a response that cannot be parsed leaves the
// state untouched: the run ends without a verdict instead of failing, and
// the aggregator reports the review as incomplete.
func (w *Workflow) summarise(ctx context.Context, state *domain.ReviewState) error {
	reviews := make([]string, 0, len(state.Reviewers))
	suggestions := make([]string, 0, len(state.Reviewers))
	for _, reviewer := range state.Reviewers {
		reviews = append(reviews, fmt.Sprintf("Reviewer %d: %s", reviewer.ID, reviewer.Review))
		suggestions = append(suggestions, fmt.Sprintf("Reviewer %d: %s", reviewer.ID, reviewer.Suggestions))
	}

	response, err := w.complete(ctx, state, "summary", map[string]string{
		"reviews":     strings.Join(reviews, "\n"),
		"suggestions": strings.Join(suggestions, "\n"),
	})
	if err != nil {
		return err
	}

	var verdict verdictResponse
	if err := decodeObject(response, &verdict); err != nil || verdict.Publishability == nil {
		w.logger.Warn("panel summary unparseable, leaving verdict unset", "err", err)
		return nil
	}

	state.Publishability = *verdict.Publishability
	if verdict.Suggestions != nil {
		state.Suggestions = *verdict.Suggestions
	}
	return nil
}

// describeAnswers renders a reviewer's questions and their compiled
// answers for the verdict prompt.
func describeAnswers(queries []domain.SingleQuery) string {
	var b strings.Builder
	for i, query := range queries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		answer := query.Answer
		if answer == "" {
			answer = "(no answer could be produced)"
		}
		fmt.Fprintf(&b, "Question %d: %s\nAnswer: %s", i+1, query.Question, answer)
	}
	return b.String()
}
