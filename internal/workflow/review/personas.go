package review

import (
	"context"
	"fmt"

	"github.com/argus-eval/argus/internal/domain"
)

// personaResponse is the shape the persona-generation prompt demands.
type personaResponse struct {
	ID             int    `json:"id"`
	Specialisation string `json:"specialisation"`
}

// generateReviewers builds the review panel, one model call per persona.
// A malformed response aborts the stage: a model that cannot produce the
// persona schema will not produce anything downstream either. Panel IDs
// are assigned locally so numbering stays dense whatever the model says.
func (w *Workflow) generateReviewers(ctx context.Context, state *domain.ReviewState) error {
	topic := ""
	if state.Paper != nil {
		topic = state.Paper.Topic
	}

	reviewers := make([]domain.Reviewer, 0, state.NumReviewers)
	for i := 0; i < state.NumReviewers; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		response, err := w.complete(ctx, state, "generate_reviewer", map[string]string{"topic": topic})
		if err != nil {
			return fmt.Errorf("persona %d: %w", i+1, err)
		}

		var persona personaResponse
		if err := decodeObject(response, &persona); err != nil {
			return fmt.Errorf("persona %d: %w: %v", i+1, domain.ErrMalformedPersona, err)
		}
		if persona.Specialisation == "" {
			return fmt.Errorf("persona %d: %w: specialisation", i+1, domain.ErrIncompleteResponse)
		}

		reviewers = append(reviewers, domain.Reviewer{
			ID:             i + 1,
			Specialisation: persona.Specialisation,
		})
	}

	state.Reviewers = reviewers
	w.countOperation("reviewers_generated_total", map[string]string{"workflow": WorkflowName})
	w.logger.Debug("panel assembled", "reviewers", len(reviewers))
	return nil
}
