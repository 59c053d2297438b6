package memory

import (
	"slices"
	"sync"

	"notebook/internal/domain"
	"notebook/internal/vectorstore"
)

// Index is an in-memory vector index using brute-force cosine similarity.
// Entries keep insertion order, which breaks score ties in Search.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []domain.IndexEntry
	sealed    bool
}

func NewIndex() *Index { return &Index{} }

var _ domain.VectorIndex = (*Index)(nil)

type entryKey struct {
	sourceID string
	index    int
}

// Insert appends entries after dropping any earlier entries of the sources
// they belong to. The call is rejected as a whole on any invalid entry.
func (s *Index) Insert(entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return domain.ErrIndexSealed
	}
	if len(entries) == 0 {
		return nil
	}

	dim := s.dimension
	if dim == 0 {
		dim = len(entries[0].Vector)
	}
	seen := make(map[entryKey]struct{}, len(entries))
	sources := make(map[string]struct{})
	for _, e := range entries {
		if len(e.Vector) != dim || dim == 0 {
			return &domain.DimensionMismatchError{Expected: dim, Actual: len(e.Vector)}
		}
		k := entryKey{e.Chunk.SourceID, e.Chunk.Index}
		if _, ok := seen[k]; ok {
			return domain.ErrDuplicateEntry
		}
		seen[k] = struct{}{}
		sources[e.Chunk.SourceID] = struct{}{}
	}

	s.entries = slices.DeleteFunc(s.entries, func(e domain.IndexEntry) bool {
		_, replaced := sources[e.Chunk.SourceID]
		return replaced
	})
	s.dimension = dim
	s.entries = append(s.entries, entries...)
	return nil
}

// Search scores every entry against the query and returns the top k.
func (s *Index) Search(query domain.Vector, k int) (domain.RetrievalResult, error) {
	if k < 1 {
		return nil, &domain.ConfigurationError{Field: "k", Reason: "must be at least 1"}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return domain.RetrievalResult{}, nil
	}
	if len(query) != s.dimension {
		return nil, &domain.DimensionMismatchError{Expected: s.dimension, Actual: len(query)}
	}

	results := make(domain.RetrievalResult, len(s.entries))
	for i, e := range s.entries {
		results[i] = domain.SearchResult{Chunk: e.Chunk, Score: vectorstore.CosineSimilarity(query, e.Vector)}
	}
	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k:k], nil
}

// Remove purges every entry of sourceID and returns how many were dropped.
// The established dimensionality survives removal.
func (s *Index) Remove(sourceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e domain.IndexEntry) bool {
		return e.Chunk.SourceID == sourceID
	})
	return before - len(s.entries)
}

// Seal ends the insert phase; later inserts fail with ErrIndexSealed.
func (s *Index) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}

func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Index) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}
