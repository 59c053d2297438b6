package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"notebook/internal/chunker"
	"notebook/internal/domain"
	"notebook/internal/vectorstore/memory"
)

// DefaultConcurrency bounds the embedding batches in flight during one ingest.
const DefaultConcurrency = 4

// Retriever ingests documents into a vector index and answers similarity queries.
type Retriever struct {
	embedder    domain.Embedder
	batchSize   int
	concurrency int
	newIndex    func() domain.VectorIndex
	logger      *slog.Logger
}

type Option func(*Retriever)

// WithBatchSize caps batches below the embedder's own limit.
func WithBatchSize(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithConcurrency(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithIndexFactory replaces the brute-force memory index.
func WithIndexFactory(f func() domain.VectorIndex) Option {
	return func(r *Retriever) {
		if f != nil {
			r.newIndex = f
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Retriever) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(embedder domain.Embedder, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:    embedder,
		concurrency: DefaultConcurrency,
		newIndex:    func() domain.VectorIndex { return memory.NewIndex() },
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ingest builds a fresh, sealed index over documents. On any failure the
// partially built index is discarded and nil is returned.
func (r *Retriever) Ingest(ctx context.Context, documents []domain.SourceDocument, chunkSize, overlap int) (domain.VectorIndex, error) {
	index := r.newIndex()
	if err := r.IngestInto(ctx, index, documents, chunkSize, overlap); err != nil {
		return nil, err
	}
	index.Seal()
	return index, nil
}

// IngestInto chunks and embeds documents and inserts them into index with one
// Insert call, replacing any entries the index already holds for those sources.
// A document that yields no chunks loses its earlier entries.
// Entries are ordered by document (caller order) then chunk.
func (r *Retriever) IngestInto(ctx context.Context, index domain.VectorIndex, documents []domain.SourceDocument, chunkSize, overlap int) error {
	start := time.Now()
	ch, err := chunker.NewWindowChunker(chunkSize, overlap)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(documents))
	var (
		chunks []domain.Chunk
		empty  []string
	)
	for _, doc := range documents {
		if _, dup := seen[doc.ID]; dup {
			return &domain.ConfigurationError{Field: "documents", Reason: fmt.Sprintf("duplicate source id %q", doc.ID)}
		}
		seen[doc.ID] = struct{}{}
		docChunks, err := ch.Chunk(doc)
		if err != nil {
			return err
		}
		if len(docChunks) == 0 {
			empty = append(empty, doc.ID)
		}
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		r.purge(index, empty)
		r.logger.Debug("nothing to ingest", "documents", len(documents))
		return nil
	}

	vectors, batches, err := r.embedAll(ctx, chunks)
	if err != nil {
		return err
	}

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexEntry{Chunk: chunks[i], Vector: vectors[i]}
	}
	if err := index.Insert(entries); err != nil {
		return err
	}
	r.purge(index, empty)
	r.logger.Info("ingested documents",
		"documents", len(documents),
		"chunks", len(chunks),
		"batches", batches,
		"embedder", r.embedder.Name(),
		"elapsed", time.Since(start),
	)
	return nil
}

// purge drops the entries of sources that no longer produce any chunk.
func (r *Retriever) purge(index domain.VectorIndex, sourceIDs []string) {
	for _, id := range sourceIDs {
		if n := index.Remove(id); n > 0 {
			r.logger.Debug("purged emptied source", "source_id", id, "chunks", n)
		}
	}
}

// embedAll embeds chunk texts in batches, possibly concurrently, writing each
// result into its chunk's slot so the output order never depends on timing.
func (r *Retriever) embedAll(ctx context.Context, chunks []domain.Chunk) ([]domain.Vector, int, error) {
	size := r.embedder.MaxBatchSize()
	if r.batchSize > 0 && (size <= 0 || r.batchSize < size) {
		size = r.batchSize
	}
	if size <= 0 {
		size = len(chunks)
	}

	vectors := make([]domain.Vector, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	batches := 0
	for lo := 0; lo < len(chunks); lo += size {
		hi := min(lo+size, len(chunks))
		texts := make([]string, hi-lo)
		for i := range texts {
			texts[i] = chunks[lo+i].Text
		}
		batches++
		g.Go(func() error {
			out, err := r.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			if len(out) != len(texts) {
				return &domain.EmbeddingServiceError{
					Provider: r.embedder.Name(),
					Cause:    fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out)),
				}
			}
			copy(vectors[lo:hi], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, batches, err
	}
	return vectors, batches, nil
}

// Retrieve embeds queryText and searches index for the k closest chunks.
// Errors from the embedder and the index are returned unchanged.
func (r *Retriever) Retrieve(ctx context.Context, index domain.VectorIndex, queryText string, k int) (domain.RetrievalResult, error) {
	query, err := r.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		return nil, err
	}
	return index.Search(query, k)
}
