// Package document provides access to the paper under evaluation: extracting
// its text for prompting and answering questions against its own content.
package document

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
)

// maxDocumentBytes bounds how much of a paper is read into memory.
// Papers beyond this are truncated rather than rejected.
const maxDocumentBytes = 2 << 20

// FileExtractor reads a paper's text from its path on disk.
// It expects plain text or markdown; PDF conversion happens upstream.
type FileExtractor struct{}

// NewFileExtractor creates a FileExtractor.
func NewFileExtractor() *FileExtractor { return &FileExtractor{} }

// Extract returns the paper's full text. When the paper carries no path,
// the already-populated section texts are joined instead.
func (e *FileExtractor) Extract(ctx context.Context, paper domain.Paper) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if paper.Path == "" {
		if len(paper.Sections) == 0 {
			return "", fmt.Errorf("paper %q has neither path nor sections", paper.Title)
		}
		return strings.Join(paper.Sections, "\n\n"), nil
	}

	data, err := os.ReadFile(paper.Path)
	if err != nil {
		return "", fmt.Errorf("read paper: %w", err)
	}
	if len(data) > maxDocumentBytes {
		data = data[:maxDocumentBytes]
	}
	return string(data), nil
}

var _ ports.DocumentExtractor = (*FileExtractor)(nil)
