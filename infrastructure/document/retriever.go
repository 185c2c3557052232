package document

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
)

// LexicalRetriever answers questions against a paper's own text using term
// overlap between the question and fixed-size passages. It trades recall for
// zero external dependencies: no embedding service is needed to evaluate a
// paper, and the passages it returns feed an LLM that does the actual
// reasoning.
type LexicalRetriever struct {
	extractor    ports.DocumentExtractor
	passageWords int
	topK         int
	folder       cases.Caser
}

// NewLexicalRetriever creates a retriever that ranks passages of roughly
// passageWords words and returns the topK best matches.
func NewLexicalRetriever(extractor ports.DocumentExtractor, passageWords, topK int) *LexicalRetriever {
	if passageWords <= 0 {
		passageWords = 150
	}
	if topK <= 0 {
		topK = 3
	}
	return &LexicalRetriever{
		extractor:    extractor,
		passageWords: passageWords,
		topK:         topK,
		folder:       cases.Fold(),
	}
}

// Query extracts the paper's text, splits it into passages, and returns the
// passages sharing the most terms with the question.
func (r *LexicalRetriever) Query(ctx context.Context, paper domain.Paper, question string) (ports.RetrievalResult, error) {
	text, err := r.extractor.Extract(ctx, paper)
	if err != nil {
		return ports.RetrievalResult{}, err
	}

	passages := r.splitPassages(text)
	if len(passages) == 0 {
		return ports.RetrievalResult{}, nil
	}

	queryTerms := r.termSet(question)

	type scored struct {
		passage string
		score   int
		index   int
	}
	ranked := make([]scored, 0, len(passages))
	for i, p := range passages {
		ranked = append(ranked, scored{passage: p, score: r.overlap(queryTerms, p), index: i})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := r.topK
	if n > len(ranked) {
		n = len(ranked)
	}

	top := ranked[:n]
	// Restore document order so the concatenated context reads naturally.
	sort.Slice(top, func(i, j int) bool { return top[i].index < top[j].index })

	result := ports.RetrievalResult{Passages: make([]string, 0, n)}
	for _, s := range top {
		result.Passages = append(result.Passages, s.passage)
	}
	result.Context = strings.Join(result.Passages, "\n\n")
	return result, nil
}

// splitPassages breaks the text into word windows, respecting paragraph
// boundaries where possible.
func (r *LexicalRetriever) splitPassages(text string) []string {
	var passages []string
	for _, para := range strings.Split(text, "\n\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		for start := 0; start < len(words); start += r.passageWords {
			end := start + r.passageWords
			if end > len(words) {
				end = len(words)
			}
			passages = append(passages, strings.Join(words[start:end], " "))
		}
	}
	return passages
}

// termSet folds and tokenises text into a set of terms, dropping words too
// short to be discriminative.
func (r *LexicalRetriever) termSet(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, word := range strings.Fields(r.folder.String(text)) {
		word = strings.Trim(word, ".,;:!?()[]\"'`")
		if len(word) >= 3 {
			terms[word] = struct{}{}
		}
	}
	return terms
}

func (r *LexicalRetriever) overlap(queryTerms map[string]struct{}, passage string) int {
	count := 0
	for term := range r.termSet(passage) {
		if _, ok := queryTerms[term]; ok {
			count++
		}
	}
	return count
}

var _ ports.PaperRetriever = (*LexicalRetriever)(nil)
