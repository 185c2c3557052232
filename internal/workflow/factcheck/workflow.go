// Package factcheck implements the claim-verification workflow: it parses
// factual claims out of a paper's extracted text, gathers external evidence
// for each claim, and scores every claim's correctness on a Likert scale.
//
// The workflow is a sequential state machine. Claims are processed one at a
// time under a cursor: query generation, evidence search, and scoring fully
// complete for a claim before the next one begins. All stage effects flow
// through the shared VerificationState accumulator.
package factcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
)

// WorkflowName labels this workflow in logs, prompts, and metrics.
const WorkflowName = "factcheck"

// Workflow drives claim verification for one paper at a time.
// A Workflow is stateless across runs and safe to reuse; each Run gets its
// own VerificationState.
type Workflow struct {
	llm      ports.CompletionClient
	web      ports.SearchProvider
	academic []ports.SearchProvider
	prompts  ports.PromptStore
	metrics  ports.MetricsCollector
	logger   *slog.Logger
}

// Config collects the collaborators a Workflow needs.
type Config struct {
	// LLM handles query generation and claim scoring.
	LLM ports.CompletionClient
	// Web is the general-web evidence source.
	Web ports.SearchProvider
	// Academic lists the academic evidence sources, queried when a claim
	// reads like a research statement.
	Academic []ports.SearchProvider
	// Prompts resolves the stage templates.
	Prompts ports.PromptStore
	// Metrics is optional; nil disables instrumentation.
	Metrics ports.MetricsCollector
	// Logger is optional; nil falls back to slog.Default.
	Logger *slog.Logger
}

// New creates a claim-verification workflow.
func New(cfg Config) *Workflow {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		llm:      cfg.LLM,
		web:      cfg.Web,
		academic: cfg.Academic,
		prompts:  cfg.Prompts,
		metrics:  cfg.Metrics,
		logger:   logger.With("workflow", WorkflowName),
	}
}

// decision is the continuation verdict after a claim commits: either advance
// to the claim at next, or halt with a reason.
type decision struct {
	halt   bool
	reason string
	next   int
}

func continueAt(next int) decision { return decision{next: next} }

func haltRun(reason string) decision { return decision{halt: true, reason: reason} }

// Run executes the workflow to its terminal state. Terminal errors are
// recorded on the returned state's Err field rather than returned: a halted
// verification is still a result the aggregator must render. The returned
// error is reserved for context cancellation.
func (w *Workflow) Run(ctx context.Context, state *domain.VerificationState) (*domain.VerificationState, error) {
	start := time.Now()
	defer func() {
		if w.metrics != nil {
			w.metrics.RecordLatency("run", time.Since(start), map[string]string{"workflow": WorkflowName})
		}
	}()

	w.parseClaims(state)
	if state.Failed() {
		w.logger.Warn("claim parsing failed", "err", state.Err)
		return state, nil
	}

	for idx := 0; ; {
		if err := ctx.Err(); err != nil {
			state.Fail(err.Error())
			return state, err
		}

		claim := &state.Claims[idx]
		w.generateQuery(ctx, state, claim)
		w.searchEvidence(ctx, state, claim)
		w.verifyClaim(ctx, state, claim)

		d := w.nextStep(state)
		if d.halt {
			w.logger.Info("claim verification halted",
				"reason", d.reason,
				"claims", state.NoClaims,
				"average", state.AverageScore,
				"factual", state.IsFactual,
			)
			return state, nil
		}
		idx = d.next
	}
}

// nextStep applies the continuation rule: a terminal error halts, a cursor at
// the end halts with success, anything else continues at the cursor.
func (w *Workflow) nextStep(state *domain.VerificationState) decision {
	if state.Failed() {
		return haltRun("error: " + state.Err)
	}
	if state.CurrentIndex >= state.NoClaims {
		return haltRun("all claims scored")
	}
	return continueAt(state.CurrentIndex)
}
