package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLLM is a scriptable CoreLLM used across tests in this package.
type stubLLM struct {
	mu        sync.Mutex
	model     string
	calls     int
	responses []string
	errs      []error
	tokensIn  int
	tokensOut int
}

func (s *stubLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++

	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	if err != nil {
		return "", 0, 0, err
	}

	resp := "ok"
	if idx < len(s.responses) {
		resp = s.responses[idx]
	}
	return resp, s.tokensIn, s.tokensOut, nil
}

func (s *stubLLM) GetModel() string  { return s.model }
func (s *stubLLM) SetModel(m string) { s.model = m }

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClient("openai", ClientConfig{Model: "gpt-4o"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")

	_, err = NewClient("openai", ClientConfig{APIKey: "sk-test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")

	_, err = NewClient("no-such-provider", ClientConfig{APIKey: "k", Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewClientAppliesMiddlewareInOrder(t *testing.T) {
	stub := &stubLLM{model: "stub-model", responses: []string{"hello"}}
	RegisterProviderFactory("stub-order", func(ClientConfig) (CoreLLM, error) {
		return stub, nil
	})

	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return coreFunc(func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
				order = append(order, name)
				return next.DoRequest(ctx, prompt, opts)
			}, next)
		}
	}

	client, err := NewClient("stub-order", ClientConfig{
		APIKey:     "k",
		Model:      "stub-model",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

// coreFunc adapts a function to CoreLLM for middleware tests.
type coreFuncLLM struct {
	fn   func(context.Context, string, map[string]any) (string, int, int, error)
	next CoreLLM
}

func coreFunc(fn func(context.Context, string, map[string]any) (string, int, int, error), next CoreLLM) CoreLLM {
	return &coreFuncLLM{fn: fn, next: next}
}

func (c *coreFuncLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	return c.fn(ctx, prompt, opts)
}

func (c *coreFuncLLM) GetModel() string  { return c.next.GetModel() }
func (c *coreFuncLLM) SetModel(m string) { c.next.SetModel(m) }

func TestNewClientAppliesConfiguredTimeout(t *testing.T) {
	var hasDeadline bool
	stub := &stubLLM{model: "m", responses: []string{"ok"}}
	RegisterProviderFactory("stub-deadline", func(ClientConfig) (CoreLLM, error) {
		return coreFunc(func(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
			_, hasDeadline = ctx.Deadline()
			return stub.DoRequest(ctx, prompt, opts)
		}, stub), nil
	})

	client, err := NewClient("stub-deadline", ClientConfig{
		APIKey:  "k",
		Model:   "m",
		Timeout: time.Minute,
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "p", nil)
	require.NoError(t, err)
	assert.True(t, hasDeadline, "provider should see a deadline-bound context")
}

func TestClientCompleteWithUsage(t *testing.T) {
	stub := &stubLLM{model: "stub-model", responses: []string{"body"}, tokensIn: 12, tokensOut: 7}
	RegisterProviderFactory("stub-usage", func(ClientConfig) (CoreLLM, error) {
		return stub, nil
	})

	client, err := NewClient("stub-usage", ClientConfig{APIKey: "k", Model: "stub-model"})
	require.NoError(t, err)

	resp, in, out, err := client.CompleteWithUsage(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "body", resp)
	assert.Equal(t, 12, in)
	assert.Equal(t, 7, out)
	assert.Equal(t, "stub-model", client.GetModel())
}

func TestClientWrapsProviderFactoryError(t *testing.T) {
	factoryErr := errors.New("bad credentials")
	RegisterProviderFactory("stub-broken", func(ClientConfig) (CoreLLM, error) {
		return nil, factoryErr
	})

	_, err := NewClient("stub-broken", ClientConfig{APIKey: "k", Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, factoryErr)
}

func TestSimpleTokenEstimator(t *testing.T) {
	t.Parallel()

	est := &SimpleTokenEstimator{}
	assert.Equal(t, 0, est.EstimateTokens(""))
	assert.Equal(t, 1, est.EstimateTokens("hi"))
	assert.Equal(t, 3, est.EstimateTokens("twelve chars"))
}
