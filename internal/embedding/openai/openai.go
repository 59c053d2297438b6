package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"notebook/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 30 * time.Second

	// MaxBatchSize is the number of inputs sent in one embeddings request.
	MaxBatchSize = 100
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
// It performs no retries; failures surface as *domain.EmbeddingServiceError.
type Client struct {
	client     openai.Client
	model      string
	dimensions int
	batchSize  int
	limiter    *rate.Limiter

	mu        sync.RWMutex
	apiKey    string
	dimension int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL string
	// APIKey is the credential value; resolving it from the environment is the caller's job.
	APIKey string
	Model  string
	// Dimensions asks text-embedding-3 models for shortened vectors when positive.
	Dimensions int
	Timeout    time.Duration
	BatchSize  int
	// RequestsPerSecond throttles outgoing calls when positive.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

var _ domain.Embedder = (*Client)(nil)

// NewClient creates a new embeddings client. A missing key is not an error
// here; every call checks it, so a key can be supplied later with SetAPIKey.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{
		client: openai.NewClient(
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
		),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
		apiKey:     cfg.APIKey,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// MaxBatchSize returns the configured per-request input limit.
func (c *Client) MaxBatchSize() int { return c.batchSize }

// SetAPIKey rotates the credential; the next call uses the new value.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

// Dimension returns the vector length observed on the first successful call, or 0.
func (c *Client) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

// EmbedQuery returns an embedding vector for a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) (domain.Vector, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > c.batchSize {
		return nil, &domain.ConfigurationError{
			Field:  "batch_size",
			Reason: fmt.Sprintf("%d inputs exceed the limit of %d", len(texts), c.batchSize),
		}
	}
	c.mu.RLock()
	key := c.apiKey
	c.mu.RUnlock()
	if key == "" {
		return nil, &domain.ConfigurationError{Field: "api_key", Reason: "no embedding credential configured"}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}
	if c.dimensions > 0 {
		params.Dimensions = openai.Int(int64(c.dimensions))
	}
	resp, err := c.client.Embeddings.New(ctx, params, option.WithAPIKey(key))
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &domain.EmbeddingServiceError{
			Provider: c.Name(),
			Cause:    fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	vectors := make([]domain.Vector, len(data))
	for i, d := range data {
		if d.Index != int64(i) {
			return nil, &domain.EmbeddingServiceError{
				Provider: c.Name(),
				Cause:    fmt.Errorf("response indices are not 0..%d: got %d at position %d", len(texts)-1, d.Index, i),
			}
		}
		if len(d.Embedding) == 0 {
			return nil, &domain.EmbeddingServiceError{Provider: c.Name(), Cause: errors.New("empty embedding")}
		}
		vectors[i] = domain.Vector(d.Embedding)
	}
	if err := c.checkDimension(vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// checkDimension fixes the client's dimensionality on first success and
// rejects any later vector of a different length.
func (c *Client) checkDimension(vectors []domain.Vector) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	want := c.dimension
	if want == 0 {
		want = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != want {
			return &domain.DimensionMismatchError{Expected: want, Actual: len(v)}
		}
	}
	c.dimension = want
	return nil
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	out := &domain.EmbeddingServiceError{Provider: "openai", Cause: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		out.StatusCode = apiErr.StatusCode
	}
	return out
}
