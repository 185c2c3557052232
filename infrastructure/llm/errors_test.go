package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderErrorFormatting(t *testing.T) {
	t.Parallel()

	wrapped := errors.New("socket closed")
	err := NewProviderError("openai", ErrorTypeServerError, 503, "service unavailable", wrapped)

	assert.Contains(t, err.Error(), "openai error")
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.Contains(t, err.Error(), "server_error")
	assert.Contains(t, err.Error(), "service unavailable")
	assert.ErrorIs(t, err, wrapped)
}

func TestProviderErrorRetryability(t *testing.T) {
	t.Parallel()

	retryable := []ErrorType{ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout}
	for _, et := range retryable {
		assert.True(t, NewProviderError("p", et, 0, "", nil).IsRetryable())
	}

	permanent := []ErrorType{ErrorTypeAuthentication, ErrorTypeBadRequest, ErrorTypeNotFound, ErrorTypeContentPolicy, ErrorTypeUnknown}
	for _, et := range permanent {
		assert.False(t, NewProviderError("p", et, 0, "", nil).IsRetryable())
	}
}

func TestErrorClassifierHTTP(t *testing.T) {
	t.Parallel()

	ec := &ErrorClassifier{Provider: "anthropic"}

	cases := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeBadRequest},
		{404, ErrorTypeNotFound},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeBadRequest},
		{599, ErrorTypeServerError},
	}

	for _, tc := range cases {
		got := ec.ClassifyHTTPError(tc.status, "msg", errors.New("raw"))
		assert.Equal(t, tc.want, got.Type, "status %d", tc.status)
		assert.Equal(t, tc.status, got.StatusCode)
	}
}

func TestErrorClassifierContext(t *testing.T) {
	t.Parallel()

	ec := &ErrorClassifier{Provider: "google"}

	err := ec.ClassifyContextError(context.DeadlineExceeded)
	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeNetwork, err.Type)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = ec.ClassifyContextError(context.Canceled)
	assert.Equal(t, ErrorTypeNetwork, err.Type)
}
