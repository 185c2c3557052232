// Package testutils provides deterministic test doubles for the evaluation
// workflows: a pattern-matching completion client, a scriptable search
// provider, and a canned paper retriever.
package testutils

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/argus-eval/argus/internal/domain"
	"github.com/argus-eval/argus/internal/ports"
)

// MockLLMClient implements the CompletionClient interface with deterministic
// responses for consistent testing. It matches prompts by substring and
// returns pre-configured responses with realistic token counts, so token
// accounting can be asserted exactly.
type MockLLMClient struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	prompts   []string
	err       error
}

// MockResponse defines a pre-configured response pattern for the mock client.
type MockResponse struct {
	// Pattern is matched against prompts by substring. Earlier entries win.
	Pattern string
	// Response is the text returned for matching prompts.
	Response string
	// InputTokens and OutputTokens are reported as the call's usage.
	InputTokens  int
	OutputTokens int
}

// NewMockLLMClient creates a MockLLMClient with no canned responses.
// Unmatched prompts return an error naming the prompt head, which makes a
// missing stub obvious in test failures.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{model: model}
}

// AddResponse registers a canned response.
func (m *MockLLMClient) AddResponse(r MockResponse) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, r)
	return m
}

// FailWith makes every call return err instead of matching responses.
func (m *MockLLMClient) FailWith(err error) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Prompts returns every prompt the client has seen, in call order.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount reports how many completion calls were made.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Complete implements ports.CompletionClient.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := m.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage implements ports.CompletionClient.
func (m *MockLLMClient) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	if m.err != nil {
		// Usage is still reported so token accounting on failed calls can
		// be asserted.
		return "", 10, 0, m.err
	}

	for _, r := range m.responses {
		if strings.Contains(prompt, r.Pattern) {
			return r.Response, r.InputTokens, r.OutputTokens, nil
		}
	}

	head := prompt
	if len(head) > 60 {
		head = head[:60]
	}
	return "", 0, 0, fmt.Errorf("no canned response matches prompt %q", head)
}

// EstimateTokens implements ports.CompletionClient with a 4-chars-per-token
// heuristic.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel implements ports.CompletionClient.
func (m *MockLLMClient) GetModel() string { return m.model }

var _ ports.CompletionClient = (*MockLLMClient)(nil)

// StaticPrompts is a PromptStore whose Render echoes the stage name and
// variables, decoupling workflow tests from the embedded template texts.
type StaticPrompts struct{}

// Render implements ports.PromptStore.
func (StaticPrompts) Render(workflow, stage string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.WriteString(workflow)
	b.WriteString("/")
	b.WriteString(stage)
	for _, key := range sortedKeys(vars) {
		b.WriteString("\n")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(vars[key])
	}
	return b.String(), nil
}

func sortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ ports.PromptStore = StaticPrompts{}

// SamplePaper returns a small paper fixture shared across workflow tests.
func SamplePaper() *domain.Paper {
	return &domain.Paper{
		Path:     "testdata/sample.txt",
		Title:    "Do We Really Need Foundation Models for Epidemic Forecasting?",
		Topic:    "ML and Time Series",
		Sections: []string{"Introduction", "Methodology", "Conclusion"},
	}
}
