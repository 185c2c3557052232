package ports

import (
	"context"

	"github.com/argus-eval/argus/internal/domain"
)

// RetrievalResult carries the passages a PaperRetriever considered relevant
// to a question, concatenated in rank order.
type RetrievalResult struct {
	// Context is the concatenated passage text handed to a prompt.
	Context string
	// Passages lists the individual matching passages, best first.
	Passages []string
}

// DocumentExtractor turns a paper reference into plain text suitable for
// prompting. Implementations may read from disk, fetch remote documents, or
// strip markup; they should fail rather than return partial garbage.
type DocumentExtractor interface {
	Extract(ctx context.Context, paper domain.Paper) (string, error)
}

// PaperRetriever answers a question against a paper's own content.
// Implementations index the paper's sections and return the passages most
// relevant to the question.
type PaperRetriever interface {
	Query(ctx context.Context, paper domain.Paper, question string) (RetrievalResult, error)
}
