package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// retryLLM retries a failed request exactly once after a fixed delay.
// Transient provider failures (rate limits, server errors, network issues)
// are retried; permanent failures like authentication errors are not.
type retryLLM struct {
	next  CoreLLM
	delay time.Duration
}

// RetryMiddleware creates middleware that retries a failed request once after
// waiting the given delay. A single delayed retry absorbs momentary provider
// hiccups without masking real outages behind long backoff loops.
func RetryMiddleware(delay time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{next: next, delay: delay}
	}
}

// DoRequest executes the request, retrying once on a retryable failure.
// It respects context cancellation during the inter-attempt delay.
func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	response, tokensIn, tokensOut, err := r.next.DoRequest(ctx, prompt, opts)
	if err == nil {
		return response, tokensIn, tokensOut, nil
	}

	if ctx.Err() != nil || !isRetryable(err) {
		return "", 0, 0, err
	}

	select {
	case <-ctx.Done():
		return "", 0, 0, ctx.Err()
	case <-time.After(r.delay):
	}

	response, tokensIn, tokensOut, retryErr := r.next.DoRequest(ctx, prompt, opts)
	if retryErr != nil {
		return "", 0, 0, fmt.Errorf("request failed after retry: %w", retryErr)
	}
	return response, tokensIn, tokensOut, nil
}

// isRetryable reports whether a failure is worth a second attempt.
// Classified provider errors carry their own retryability; unclassified
// errors are assumed transient.
func isRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}
	return true
}

// GetModel returns the model name from the wrapped implementation.
func (r *retryLLM) GetModel() string { return r.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }
