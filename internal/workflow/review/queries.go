package review

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/argus-eval/argus/internal/domain"
)

// generateQuestions asks the model, in a single call, for every reviewer's
// questionnaire: one yes/no question per paper section, keyed by reviewer
// id. The response must be a JSON object with one key per reviewer and
// exactly one question per section under it; a missing reviewer key or a
// short questionnaire means the model ignored the schema and the stage
// aborts rather than reviewing with a partial panel.
func (w *Workflow) generateQuestions(ctx context.Context, state *domain.ReviewState) error {
	paper := state.Paper
	if paper == nil {
		paper = &domain.Paper{}
	}

	response, err := w.complete(ctx, state, "generate_questions", map[string]string{
		"title":         paper.Title,
		"topic":         paper.Topic,
		"sections":      strings.Join(paper.Sections, ", "),
		"reviewers":     describePanel(state.Reviewers),
		"num_questions": strconv.Itoa(paper.NumQuestions()),
	})
	if err != nil {
		return err
	}

	var byReviewer map[string]map[string]string
	if err := decodeObject(response, &byReviewer); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedQuestions, err)
	}

	queries := make([][]domain.SingleQuery, len(state.Reviewers))
	for i := range state.Reviewers {
		reviewer := &state.Reviewers[i]

		questionMap, ok := byReviewer[strconv.Itoa(reviewer.ID)]
		if !ok {
			return fmt.Errorf("%w: reviewer %d", domain.ErrIncompleteResponse, reviewer.ID)
		}

		questions, err := orderedQuestions(questionMap)
		if err != nil {
			return fmt.Errorf("reviewer %d: %w", reviewer.ID, err)
		}
		if len(questions) != paper.NumQuestions() {
			return fmt.Errorf("%w: reviewer %d returned %d questions, want %d",
				domain.ErrIncompleteResponse, reviewer.ID, len(questions), paper.NumQuestions())
		}

		reviewer.Questions = questions
		queries[i] = make([]domain.SingleQuery, len(questions))
		for q, text := range questions {
			queries[i][q] = domain.SingleQuery{Question: text}
		}
	}

	state.Queries = queries
	return nil
}

// orderedQuestions flattens an index-keyed question map into a slice
// ordered by the numeric index. Non-numeric indices violate the schema.
func orderedQuestions(questionMap map[string]string) ([]string, error) {
	type indexed struct {
		idx  int
		text string
	}

	entries := make([]indexed, 0, len(questionMap))
	for key, text := range questionMap {
		idx, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: question index %q", domain.ErrMalformedQuestions, key)
		}
		entries = append(entries, indexed{idx: idx, text: text})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })

	questions := make([]string, len(entries))
	for i, e := range entries {
		questions[i] = e.text
	}
	return questions, nil
}

func describePanel(reviewers []domain.Reviewer) string {
	var b strings.Builder
	for i, r := range reviewers {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Reviewer %d: specialises in %s", r.ID, r.Specialisation)
	}
	return b.String()
}

// subQueryResponse is the shape the decomposition prompt demands.
type subQueryResponse struct {
	SubQueries []string `json:"sub-queries"`
}

// generateSubQueries decomposes every top-level question into simpler
// yes/no sub-queries, one model call per question. A question whose
// decomposition cannot be parsed is skipped, not fatal: the rest of the
// panel's work is kept and the skipped question simply goes unanswered.
func (w *Workflow) generateSubQueries(ctx context.Context, state *domain.ReviewState) error {
	for r := range state.Queries {
		for q := range state.Queries[r] {
			if err := ctx.Err(); err != nil {
				return err
			}
			query := &state.Queries[r][q]

			response, err := w.complete(ctx, state, "generate_sub_queries", map[string]string{
				"question":        query.Question,
				"num_sub_queries": strconv.Itoa(state.NumSubQueries),
			})
			if err != nil {
				return err
			}

			var decomposed subQueryResponse
			if err := decodeObject(response, &decomposed); err != nil {
				w.logger.Warn("skipping undecomposable question",
					"reviewer", r+1, "question", q+1, "err", err)
				w.countOperation("subqueries_skipped_total", map[string]string{"workflow": WorkflowName})
				continue
			}

			pairs := make([]domain.QAPair, len(decomposed.SubQueries))
			for i, sub := range decomposed.SubQueries {
				pairs[i] = domain.QAPair{Query: sub}
			}
			query.SubQueries = pairs
		}
	}
	return nil
}

// answerSubQueries answers every sub-query from the paper's own content.
// The model is asked for a single YES or NO; anything that is not "yes"
// after trimming and lowercasing counts as a no.
func (w *Workflow) answerSubQueries(ctx context.Context, state *domain.ReviewState) error {
	paper := state.Paper
	if paper == nil {
		paper = &domain.Paper{}
	}

	for r := range state.Queries {
		for q := range state.Queries[r] {
			query := &state.Queries[r][q]
			for i := range query.SubQueries {
				if err := ctx.Err(); err != nil {
					return err
				}
				pair := &query.SubQueries[i]

				retrieved, err := w.retriever.Query(ctx, *paper, pair.Query)
				if err != nil {
					return fmt.Errorf("retrieve for sub-query: %w", err)
				}

				response, err := w.complete(ctx, state, "answer_sub_query", map[string]string{
					"context": retrieved.Context,
					"query":   pair.Query,
				})
				if err != nil {
					return err
				}

				pair.Answer = strings.ToLower(strings.TrimSpace(response)) == "yes"
			}
		}
	}
	return nil
}

// compileAnswers folds each question's answered sub-queries into a final
// free-text answer, grounded in both the transcript and fresh retrieval
// on the top-level question. Questions without sub-queries stay
// unanswered.
func (w *Workflow) compileAnswers(ctx context.Context, state *domain.ReviewState) error {
	paper := state.Paper
	if paper == nil {
		paper = &domain.Paper{}
	}

	for r := range state.Queries {
		for q := range state.Queries[r] {
			query := &state.Queries[r][q]
			if len(query.SubQueries) == 0 {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			retrieved, err := w.retriever.Query(ctx, *paper, query.Question)
			if err != nil {
				return fmt.Errorf("retrieve for compilation: %w", err)
			}

			response, err := w.complete(ctx, state, "compile_answer", map[string]string{
				"context":  retrieved.Context,
				"question": query.Question,
				"qa_pairs": transcript(query.SubQueries),
			})
			if err != nil {
				return err
			}

			query.Answer = strings.TrimSpace(response)
		}
	}
	return nil
}

// transcript renders answered sub-queries as a compact Q/A listing.
func transcript(pairs []domain.QAPair) string {
	var b strings.Builder
	for i, pair := range pairs {
		if i > 0 {
			b.WriteString("\n")
		}
		answer := "NO"
		if pair.Answer {
			answer = "YES"
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s", pair.Query, answer)
	}
	return b.String()
}
