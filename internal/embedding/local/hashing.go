// Package local provides an embedder that runs without any provider or credential.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"notebook/internal/domain"
)

const (
	DefaultDimension = 512
	maxBatchSize     = 256
)

// Embedder maps text to L2-normalized hashed term-frequency vectors.
// Unlike TF-IDF it needs no corpus preparation, so every call is independent
// and the dimensionality is fixed at construction.
type Embedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates a hashing embedder; non-positive dimensions use the default.
func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

var _ domain.Embedder = (*Embedder)(nil)

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "local" }

func (e *Embedder) MaxBatchSize() int { return maxBatchSize }

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) (domain.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *Embedder) embed(text string) domain.Vector {
	vec := make(domain.Vector, e.dimension)
	tokens := e.tokenize(text)
	if len(tokens) == 0 {
		return vec
	}
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		// the top bit picks a sign so unrelated collisions tend to cancel out
		sign := 1.0
		if sum>>63 == 1 {
			sign = -1.0
		}
		vec[sum%uint64(e.dimension)] += sign
	}
	// Sublinear TF, then L2 normalize
	norm := 0.0
	for i, v := range vec {
		if v != 0 {
			vec[i] = math.Copysign(1+math.Log(math.Abs(v)), v)
		}
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (e *Embedder) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := e.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
