package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook/internal/domain"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type chatServer struct {
	*httptest.Server
	calls   atomic.Int32
	last    atomic.Value
	status  int
	choices int
}

func newChatServer(t *testing.T, status, choices int) *chatServer {
	t.Helper()
	s := &chatServer{status: status, choices: choices}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if s.status != http.StatusOK {
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.last.Store(req)
		choices := make([]map[string]any, 0, s.choices)
		for i := 0; i < s.choices; i++ {
			choices = append(choices, map[string]any{
				"index":         i,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "  # Summary\n\nGenerated.  "},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req.Model,
			"choices": choices,
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func TestGenerator_Generate(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, 1)
	g := NewGenerator(Config{BaseURL: srv.URL + "/v1", APIKey: "k", Model: "test-model", MaxTokens: 512})

	out, err := g.Generate(context.Background(), domain.GenerationRequest{Prompt: "Context:\nabc\n\nResponse:\n"})
	require.NoError(t, err)
	assert.Equal(t, "# Summary\n\nGenerated.", out)

	req := srv.last.Load().(chatRequest)
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 512, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "Context:\nabc\n\nResponse:\n", req.Messages[0].Content)
}

func TestGenerator_MissingCredential(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, 1)
	g := NewGenerator(Config{BaseURL: srv.URL + "/v1"})

	_, err := g.Generate(context.Background(), domain.GenerationRequest{Prompt: "p"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, int32(0), srv.calls.Load())

	g.SetAPIKey("k")
	_, err = g.Generate(context.Background(), domain.GenerationRequest{Prompt: "p"})
	assert.NoError(t, err)
}

func TestGenerator_ProviderError(t *testing.T) {
	srv := newChatServer(t, http.StatusTooManyRequests, 1)
	g := NewGenerator(Config{BaseURL: srv.URL + "/v1", APIKey: "k"})

	_, err := g.Generate(context.Background(), domain.GenerationRequest{Prompt: "p"})
	var genErr *domain.GenerationError
	require.True(t, errors.As(err, &genErr), "got %T", err)
	assert.Equal(t, http.StatusTooManyRequests, genErr.StatusCode)
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestGenerator_NoChoices(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, 0)
	g := NewGenerator(Config{BaseURL: srv.URL + "/v1", APIKey: "k"})

	_, err := g.Generate(context.Background(), domain.GenerationRequest{Prompt: "p"})
	var genErr *domain.GenerationError
	assert.True(t, errors.As(err, &genErr))
}

func TestGenerator_Cancelled(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, 1)
	g := NewGenerator(Config{BaseURL: srv.URL + "/v1", APIKey: "k"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, domain.GenerationRequest{Prompt: "p"})
	assert.ErrorIs(t, err, context.Canceled)
}
