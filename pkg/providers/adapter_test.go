package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translens/go-llm-translator/pkg/translation"
)

// stubProvider 记录收到的请求并返回固定响应
type stubProvider struct {
	lastReq *CompletionRequest
}

func (s *stubProvider) Complete(_ context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	s.lastReq = req
	return &CompletionResponse{
		Text:      "<textarea>\n1.译文\n</textarea>",
		Model:     "stub-model",
		TokensIn:  12,
		TokensOut: 8,
	}, nil
}

func (s *stubProvider) GetName() string { return "stub" }

func (s *stubProvider) HealthCheck(context.Context) error { return nil }

func TestAdapterBridgesRequestAndResponse(t *testing.T) {
	stub := &stubProvider{}
	adapter := NewAdapter(stub)

	assert.Equal(t, "stub", adapter.Name())

	resp, err := adapter.Complete(context.Background(), &translation.Request{
		System:      "system prompt",
		Prompt:      "1.hello",
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   100,
		Metadata:    map[string]string{"step": "literal"},
	})
	require.NoError(t, err)

	assert.Equal(t, "system prompt", stub.lastReq.System)
	assert.Equal(t, "1.hello", stub.lastReq.Prompt)
	assert.Equal(t, "gpt-4o-mini", stub.lastReq.Model)
	assert.Equal(t, 100, stub.lastReq.MaxTokens)

	assert.Equal(t, "<textarea>\n1.译文\n</textarea>", resp.Text)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 8, resp.Usage.OutputTokens)
}

func TestErrorRetryability(t *testing.T) {
	assert.True(t, NewError("rate_limit", "too many requests").IsRetryable())
	assert.True(t, NewError("server_error", "boom").IsRetryable())
	assert.True(t, NewError("timeout", "slow").IsRetryable())
	assert.False(t, NewError("client_error", "bad request").IsRetryable())
	assert.False(t, NewError("config", "missing key").IsRetryable())
}
