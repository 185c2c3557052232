package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-eval/argus/internal/domain"
)

func TestFileExtractorReadsFromDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "paper.txt")
	require.NoError(t, os.WriteFile(path, []byte("Abstract\n\nWe study epidemic forecasting."), 0o600))

	extractor := NewFileExtractor()
	text, err := extractor.Extract(context.Background(), domain.Paper{Path: path, Title: "Forecasting"})
	require.NoError(t, err)
	assert.Contains(t, text, "epidemic forecasting")
}

func TestFileExtractorFallsBackToSections(t *testing.T) {
	t.Parallel()

	extractor := NewFileExtractor()
	paper := domain.Paper{
		Title:    "Sectioned",
		Sections: []string{"Introduction text.", "Conclusion text."},
	}

	text, err := extractor.Extract(context.Background(), paper)
	require.NoError(t, err)
	assert.Equal(t, "Introduction text.\n\nConclusion text.", text)
}

func TestFileExtractorRejectsEmptyPaper(t *testing.T) {
	t.Parallel()

	extractor := NewFileExtractor()
	_, err := extractor.Extract(context.Background(), domain.Paper{Title: "Empty"})
	assert.Error(t, err)
}

func TestFileExtractorMissingFile(t *testing.T) {
	t.Parallel()

	extractor := NewFileExtractor()
	_, err := extractor.Extract(context.Background(), domain.Paper{Path: "/no/such/file.txt"})
	assert.Error(t, err)
}

func TestLexicalRetrieverRanksRelevantPassages(t *testing.T) {
	t.Parallel()

	paper := domain.Paper{
		Title: "Forecasting",
		Sections: []string{
			"The weather today is sunny with mild winds across the coast.",
			"Our epidemic forecasting model uses foundation models for multi-step prediction of infection rates.",
			"Acknowledgements and funding statements are listed at the end.",
		},
	}

	retriever := NewLexicalRetriever(NewFileExtractor(), 50, 1)
	result, err := retriever.Query(context.Background(), paper, "Does the paper use foundation models for epidemic forecasting?")
	require.NoError(t, err)
	require.Len(t, result.Passages, 1)
	assert.Contains(t, result.Context, "epidemic forecasting model")
}

func TestLexicalRetrieverPreservesDocumentOrder(t *testing.T) {
	t.Parallel()

	paper := domain.Paper{
		Title: "Ordered",
		Sections: []string{
			"Alpha section mentions transformers and attention early on.",
			"Middle filler section about unrelated administrative matters entirely.",
			"Omega section also mentions transformers and attention near the end.",
		},
	}

	retriever := NewLexicalRetriever(NewFileExtractor(), 50, 2)
	result, err := retriever.Query(context.Background(), paper, "transformers attention")
	require.NoError(t, err)
	require.Len(t, result.Passages, 2)
	assert.Contains(t, result.Passages[0], "Alpha")
	assert.Contains(t, result.Passages[1], "Omega")
}

func TestLexicalRetrieverEmptyDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

	retriever := NewLexicalRetriever(NewFileExtractor(), 50, 3)
	result, err := retriever.Query(context.Background(), domain.Paper{Path: path}, "anything")
	require.NoError(t, err)
	assert.Empty(t, result.Passages)
	assert.Empty(t, result.Context)
}
