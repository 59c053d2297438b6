package domain

import "context"

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document SourceDocument) ([]Chunk, error)
}

// Embedder converts free text into vectors through an embedding provider.
// Ingestion should prefer EmbedBatch over repeated EmbedQuery calls.
type Embedder interface {
	Name() string
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)
	EmbedQuery(ctx context.Context, text string) (Vector, error)
	// MaxBatchSize is the largest slice EmbedBatch accepts in one call.
	MaxBatchSize() int
}

// VectorIndex stores embedded chunks and answers k-nearest-neighbor queries.
// Callers rely only on the insert/search contract, not on scan order.
type VectorIndex interface {
	Insert(entries []IndexEntry) error
	Search(query Vector, k int) (RetrievalResult, error)
	Remove(sourceID string) int
	Seal()
	Len() int
	Dimension() int
}

// GenerationRequest is handed to a Generator once the prompt is assembled.
type GenerationRequest struct {
	Template Template
	Prompt   string
	Context  RetrievalResult
}

// Generator turns an assembled prompt into prose.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
