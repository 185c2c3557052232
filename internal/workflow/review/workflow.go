// Package review implements the panel-review workflow: it simulates a panel
// of reviewer personas, has each persona interrogate the paper through
// decomposed yes/no questions answered from the paper's own content, and
// merges the panel's verdicts into a single publishability classification
// with improvement suggestions.
//
// The pipeline is a fixed sequence with no branching. Each stage reads and
// mutates the shared ReviewState; a stage error is terminal for this
// workflow only.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
)

// WorkflowName labels this workflow in logs, prompts, and metrics.
const WorkflowName = "review"

// Workflow drives the review pipeline for one paper at a time. Like its
// claim-verification sibling it is stateless across runs.
type Workflow struct {
	llm       ports.CompletionClient
	retriever ports.PaperRetriever
	prompts   ports.PromptStore
	metrics   ports.MetricsCollector
	logger    *slog.Logger
}

// Config collects the collaborators a Workflow needs.
type Config struct {
	// LLM handles every generation stage of the pipeline.
	LLM ports.CompletionClient
	// Retriever grounds sub-query answering and answer compilation in the
	// paper's own content.
	Retriever ports.PaperRetriever
	// Prompts resolves the stage templates.
	Prompts ports.PromptStore
	// Metrics is optional; nil disables instrumentation.
	Metrics ports.MetricsCollector
	// Logger is optional; nil falls back to slog.Default.
	Logger *slog.Logger
}

// New creates a review workflow.
func New(cfg Config) *Workflow {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		llm:       cfg.LLM,
		retriever: cfg.Retriever,
		prompts:   cfg.Prompts,
		metrics:   cfg.Metrics,
		logger:    logger.With("workflow", WorkflowName),
	}
}

// Run executes the pipeline to completion. Stage errors are both returned
// and mirrored onto the state's Err field so the aggregator can render a
// partial result. A run that ends without a verdict because the summarise
// response was unparseable is not an error.
func (w *Workflow) Run(ctx context.Context, state *domain.ReviewState) (*domain.ReviewState, error) {
	start := time.Now()
	defer func() {
		if w.metrics != nil {
			w.metrics.RecordLatency("run", time.Since(start), map[string]string{"workflow": WorkflowName})
		}
	}()

	stages := []struct {
		name string
		run  func(context.Context, *domain.ReviewState) error
	}{
		{"generate_reviewers", w.generateReviewers},
		{"generate_questions", w.generateQuestions},
		{"generate_sub_queries", w.generateSubQueries},
		{"answer_sub_queries", w.answerSubQueries},
		{"compile_answers", w.compileAnswers},
		{"review_and_suggest", w.reviewAndSuggest},
		{"summarise", w.summarise},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			state.Err = err.Error()
			return state, err
		}
		if err := stage.run(ctx, state); err != nil {
			w.logger.Warn("review stage failed", "stage", stage.name, "err", err)
			state.Err = err.Error()
			return state, fmt.Errorf("%s: %w", stage.name, err)
		}
	}

	w.logger.Info("review complete",
		"reviewers", len(state.Reviewers),
		"publishability", state.Publishability,
	)
	return state, nil
}

// complete renders a stage prompt, invokes the model, and accounts token
// usage before the caller gets to parse anything. Both sides of the
// exchange are recorded in the state's message history.
func (w *Workflow) complete(ctx context.Context, state *domain.ReviewState, stage string, vars map[string]string) (string, error) {
	prompt, err := w.prompts.Render(WorkflowName, stage, vars)
	if err != nil {
		return "", err
	}

	state.Append("user", prompt)
	response, in, out, err := w.llm.CompleteWithUsage(ctx, prompt, nil)
	state.TokenUsage.Add(in, out)
	if err != nil {
		return "", err
	}
	state.Append("assistant", response)
	return response, nil
}

// decodeObject parses a model response that was instructed to be a bare
// JSON object. Code fences are tolerated since models add them even when
// told not to; anything else malformed is the caller's sentinel.
func decodeObject(response string, into any) error {
	return json.Unmarshal([]byte(stripFences(response)), into)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (w *Workflow) countOperation(metric string, labels map[string]string) {
	if w.metrics == nil {
		return
	}
	w.metrics.RecordCounter(metric, 1, labels)
}
