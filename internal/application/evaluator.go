// Package application joins the two evaluation workflows into a single
// verdict. It owns no evaluation logic of its own: the claim-verification
// and review pipelines run independently and the aggregation rule here is
// a strict conjunction over their terminal states.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
	"github.com/argus-eval/argus/internal/workflow/factcheck"
	"github.com/argus-eval/argus/internal/workflow/review"
)

// Evaluator runs both workflows against a paper and merges their terminal
// states into a CombinedVerdict.
type Evaluator struct {
	extractor ports.DocumentExtractor
	factcheck *factcheck.Workflow
	review    *review.Workflow

	numReviewers  int
	numSubQueries int

	metrics ports.MetricsCollector
	logger  *slog.Logger
}

// EvaluatorConfig collects the collaborators an Evaluator needs.
type EvaluatorConfig struct {
	Extractor ports.DocumentExtractor
	Factcheck *factcheck.Workflow
	Review    *review.Workflow

	// NumReviewers is the review panel size.
	NumReviewers int
	// NumSubQueries is how many sub-questions each review question
	// decomposes into.
	NumSubQueries int

	// Metrics is optional; nil disables instrumentation.
	Metrics ports.MetricsCollector
	// Logger is optional; nil falls back to slog.Default.
	Logger *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		extractor:     cfg.Extractor,
		factcheck:     cfg.Factcheck,
		review:        cfg.Review,
		numReviewers:  cfg.NumReviewers,
		numSubQueries: cfg.NumSubQueries,
		metrics:       cfg.Metrics,
		logger:        logger,
	}
}

// Evaluate runs both workflows to completion and applies the reliability
// rule. The workflows share no mutable state and run concurrently; the
// join is unconditional, so a failed workflow still contributes its
// partial terminal state to the verdict. The returned error is reserved
// for failures that prevent evaluation from starting at all.
func (e *Evaluator) Evaluate(ctx context.Context, paper *domain.Paper) (*domain.CombinedVerdict, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	logger.Info("evaluation started", "title", paper.Title)

	text, err := e.extractor.Extract(ctx, *paper)
	if err != nil {
		return nil, fmt.Errorf("extract paper text: %w", err)
	}

	verification := domain.NewVerificationState(paper, text)
	reviewState := domain.NewReviewState(paper, e.numReviewers, e.numSubQueries)

	// Workflow-internal errors live on each state's Err field; the group
	// only propagates context cancellation so both runs always join.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := e.factcheck.Run(gctx, verification)
		return err
	})
	g.Go(func() error {
		_, err := e.review.Run(gctx, reviewState)
		if err != nil && gctx.Err() != nil {
			return gctx.Err()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	verdict := &domain.CombinedVerdict{
		ID:           runID,
		Paper:        paper,
		Verification: verification,
		Review:       reviewState,
		IsReliable:   verification.IsFactual && reviewState.Publishability == domain.PublishVerdict,
		Timestamp:    time.Now().UTC(),
	}
	verdict.TokenUsage.Merge(verification.TokenUsage)
	verdict.TokenUsage.Merge(reviewState.TokenUsage)
	verdict.OverallAssessment = buildAssessment(verification, reviewState, verdict.IsReliable)

	if e.metrics != nil {
		e.metrics.RecordLatency("evaluate", time.Since(start), map[string]string{"workflow": "aggregator"})
		status := "unreliable"
		if verdict.IsReliable {
			status = "reliable"
		}
		e.metrics.RecordCounter("verdicts_total", 1, map[string]string{"status": status, "workflow": "aggregator"})
	}

	logger.Info("evaluation finished",
		"reliable", verdict.IsReliable,
		"tokens", verdict.TokenUsage.TotalTokens,
		"duration", time.Since(start),
	)
	return verdict, nil
}

// buildAssessment renders the human-readable verdict summary. It must
// produce a meaningful string for every combination of outcomes,
// including runs where a workflow halted with an error and its fields
// were never set.
func buildAssessment(verification *domain.VerificationState, reviewState *domain.ReviewState, reliable bool) string {
	if reliable {
		return fmt.Sprintf("The paper is factual (score %.1f/5) and recommended for publication.",
			verification.AverageScore)
	}

	var reasons []string

	switch {
	case verification.Failed():
		reasons = append(reasons, fmt.Sprintf("- the claim verification could not be completed: %s", verification.Err))
	case !verification.Complete():
		reasons = append(reasons, "- the claim verification could not be completed")
	case !verification.IsFactual:
		reasons = append(reasons, fmt.Sprintf("- the paper contains factual inaccuracies (score %.1f/5)", verification.AverageScore))
	}

	switch {
	case reviewState.Err != "":
		reasons = append(reasons, fmt.Sprintf("- the review could not be completed: %s", reviewState.Err))
	case reviewState.Publishability == "":
		reasons = append(reasons, "- the review could not be completed: the panel produced no verdict")
	case reviewState.Publishability != domain.PublishVerdict:
		reason := fmt.Sprintf("- the panel raised publishability concerns (%s)", reviewState.Publishability)
		if reviewState.Suggestions != "" {
			reason += ": " + reviewState.Suggestions
		}
		reasons = append(reasons, reason)
	}

	if len(reasons) == 0 {
		// Both workflows succeeded with positive outcomes yet the verdict
		// is not reliable; unreachable under the conjunction rule.
		return "The paper could not be assessed."
	}
	return "The paper is not considered reliable:\n" + strings.Join(reasons, "\n")
}
