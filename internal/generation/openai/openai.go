// Package openai generates documents with an OpenAI-compatible chat completions API.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"notebook/internal/domain"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 2048
	DefaultTimeout   = 120 * time.Second
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Generator sends the assembled prompt as a single user message.
type Generator struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64

	mu     sync.RWMutex
	apiKey string
}

var _ domain.Generator = (*Generator)(nil)

func NewGenerator(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Generator{
		client: openai.NewClient(
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
		),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		apiKey:      cfg.APIKey,
	}
}

func (g *Generator) Name() string { return "openai" }

// SetAPIKey rotates the credential for subsequent calls.
func (g *Generator) SetAPIKey(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.apiKey = key
}

func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	g.mu.RLock()
	key := g.apiKey
	g.mu.RUnlock()
	if key == "" {
		return "", &domain.ConfigurationError{Field: "api_key", Reason: "no generation credential configured"}
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:   openai.Int(int64(g.maxTokens)),
		Temperature: openai.Float(g.temperature),
	}
	completion, err := g.client.Chat.Completions.New(ctx, params, option.WithAPIKey(key))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		out := &domain.GenerationError{Provider: g.Name(), Cause: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			out.StatusCode = apiErr.StatusCode
		}
		return "", out
	}
	if len(completion.Choices) == 0 {
		return "", &domain.GenerationError{Provider: g.Name(), Cause: errors.New("no completion choices returned")}
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
