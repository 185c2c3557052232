package factcheck

import (
	"context"
	"strings"

	"github.com/argus-eval/argus/internal/domain"
)

// verifyClaim scores the claim against its gathered evidence and commits the
// result: the score lands in the state, the evidence is discarded, and the
// cursor advances. A claim with no evidence is unverifiable and scores 0
// without a model call.
func (w *Workflow) verifyClaim(ctx context.Context, state *domain.VerificationState, claim *domain.Claim) {
	if state.Failed() {
		return
	}

	evidence := combineEvidence(claim.Evidence)
	if evidence == "" {
		w.logger.Info("no evidence found, claim unverifiable", "claim", claim.Text)
		state.CommitScore(domain.ScoreUnverifiable)
		return
	}

	score := w.scoreClaim(ctx, state, claim.Text, evidence)
	state.CommitScore(score)

	if w.metrics != nil {
		w.metrics.RecordCounter("claims_scored_total", 1, map[string]string{"workflow": WorkflowName})
	}
}

// scoreClaim asks the model for a bare Likert number. Malformed output
// never fails the claim; it degrades to 0.
func (w *Workflow) scoreClaim(ctx context.Context, state *domain.VerificationState, claimText, evidence string) int {
	prompt, err := w.prompts.Render(WorkflowName, "score_claim", map[string]string{
		"claim":    claimText,
		"evidence": evidence,
	})
	if err != nil {
		w.logger.Warn("score template unavailable", "err", err)
		return domain.ScoreUnverifiable
	}

	response, in, out, err := w.llm.CompleteWithUsage(ctx, prompt, nil)
	state.TokenUsage.Add(in, out)
	if err != nil {
		w.logger.Warn("claim scoring failed", "claim", claimText, "err", err)
		return domain.ScoreUnverifiable
	}

	return parseScore(response)
}

// combineEvidence concatenates the non-empty snippets into the grounding
// text handed to the scoring prompt, tagging each with its source and URL.
func combineEvidence(snippets []domain.EvidenceSnippet) string {
	var b strings.Builder
	for _, s := range snippets {
		if s.Content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[")
		b.WriteString(s.Source)
		b.WriteString("] ")
		b.WriteString(s.Title)
		if s.URL != "" {
			b.WriteString(" (")
			b.WriteString(s.URL)
			b.WriteString(")")
		}
		b.WriteString(": ")
		b.WriteString(s.Content)
	}
	return b.String()
}

// parseScore extracts the leading digit run from a model response.
// No digits means 0; values above the scale clamp to ScoreMax. It never
// fails on malformed output.
func parseScore(response string) int {
	response = strings.TrimSpace(response)

	value := 0
	seen := false
	for _, r := range response {
		if r < '0' || r > '9' {
			if seen {
				break
			}
			// Skip leading non-digits such as "Score: 4".
			continue
		}
		seen = true
		value = value*10 + int(r-'0')
		if value > domain.ScoreMax {
			return domain.ScoreMax
		}
	}

	if !seen {
		return domain.ScoreUnverifiable
	}
	return value
}
