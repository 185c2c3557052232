package factcheck

import (
	"context"
	"strings"

	levenshtein "github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
)

// Evidence caps. Academic sources contribute at most three snippets each and
// the claim never carries more than five snippets in total, no matter how
// many tools succeed.
const (
	maxPerTool      = 3
	maxEvidence     = 5
	nearDuplicateAt = 20
)

// academicKeywords routes a claim to the academic search strategy when any
// of them appears in the claim text. The match is a case-insensitive
// substring test.
var academicKeywords = []string{"research", "study", "scientific", "paper"}

var fold = cases.Fold()

// parseClaims splits the raw input into one claim per non-empty trimmed
// line. Zero claims is a terminal error; the loop never starts.
func (w *Workflow) parseClaims(state *domain.VerificationState) {
	for _, line := range strings.Split(state.Inputs, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		state.Claims = append(state.Claims, domain.Claim{Text: line})
	}

	state.NoClaims = len(state.Claims)
	state.Scores = make([]int, state.NoClaims)

	if state.NoClaims == 0 {
		state.Fail(domain.ErrEmptyInput.Error())
	}
}

// generateQuery derives a search query from the claim text. Adapter failure
// degrades to using the raw claim text; this stage never hard-fails.
func (w *Workflow) generateQuery(ctx context.Context, state *domain.VerificationState, claim *domain.Claim) {
	if state.Failed() {
		return
	}

	provider := "the web"
	if isAcademic(claim.Text) {
		provider = "academic indexes"
	}

	prompt, err := w.prompts.Render(WorkflowName, "generate_query", map[string]string{
		"claim":    claim.Text,
		"provider": provider,
	})
	if err != nil {
		// Missing templates are caught at startup; treat this as degraded.
		w.logger.Warn("query template unavailable, using claim text", "err", err)
		claim.SearchQuery = claim.Text
		return
	}

	response, in, out, err := w.llm.CompleteWithUsage(ctx, prompt, nil)
	state.TokenUsage.Add(in, out)
	if err != nil {
		w.logger.Warn("query generation failed, using claim text", "err", err)
		claim.SearchQuery = claim.Text
		return
	}

	query := strings.TrimSpace(response)
	if query == "" {
		query = claim.Text
	}
	claim.SearchQuery = query
}

// searchEvidence gathers snippets for the claim, choosing the academic
// strategy when the claim reads like a research statement and the general
// web otherwise. Tool failures degrade to partial results; a missing query
// is a terminal error.
func (w *Workflow) searchEvidence(ctx context.Context, state *domain.VerificationState, claim *domain.Claim) {
	if state.Failed() {
		return
	}

	if claim.SearchQuery == "" {
		state.Fail(domain.ErrMissingQuery.Error())
		return
	}

	var snippets []domain.EvidenceSnippet
	if isAcademic(claim.Text) {
		for _, tool := range w.academic {
			snippets = append(snippets, w.searchTool(ctx, tool, claim.SearchQuery, maxPerTool)...)
		}
	} else {
		snippets = w.searchTool(ctx, w.web, claim.SearchQuery, maxEvidence)
	}

	snippets = dedupeSnippets(snippets)
	if len(snippets) > maxEvidence {
		snippets = snippets[:maxEvidence]
	}
	claim.Evidence = snippets

	if w.metrics != nil {
		w.metrics.RecordCounter("evidence_snippets_total", float64(len(snippets)),
			map[string]string{"workflow": WorkflowName})
	}
}

// searchTool queries one provider, compacting results into capped snippets.
// Failures are logged and yield nil; the claim proceeds with whatever the
// other tools produced.
func (w *Workflow) searchTool(ctx context.Context, tool ports.SearchProvider, query string, limit int) []domain.EvidenceSnippet {
	results, err := tool.Search(ctx, query)
	if err != nil {
		w.logger.Warn("evidence search failed", "tool", tool.Name(), "err", err)
		return nil
	}

	if len(results) > limit {
		results = results[:limit]
	}

	snippets := make([]domain.EvidenceSnippet, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, domain.EvidenceSnippet{
			Title:   r.Title,
			URL:     r.URL,
			Source:  tool.Name(),
			Content: domain.Truncate(r.Content, domain.MaxSnippetLen),
		})
	}
	return snippets
}

// dedupeSnippets drops snippets whose content is a near-duplicate of an
// earlier one. Academic indexes frequently return the same abstract for the
// same paper under different URLs.
func dedupeSnippets(snippets []domain.EvidenceSnippet) []domain.EvidenceSnippet {
	kept := make([]domain.EvidenceSnippet, 0, len(snippets))
	for _, candidate := range snippets {
		duplicate := false
		for _, existing := range kept {
			if candidate.URL != "" && candidate.URL == existing.URL {
				duplicate = true
				break
			}
			if levenshtein.ComputeDistance(candidate.Content, existing.Content) < nearDuplicateAt {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// isAcademic applies the fixed keyword test that routes a claim to the
// academic search strategy.
func isAcademic(text string) bool {
	folded := fold.String(text)
	for _, keyword := range academicKeywords {
		if strings.Contains(folded, keyword) {
			return true
		}
	}
	return false
}
