package chunker

import (
	"notebook/internal/domain"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// WindowChunker splits text into fixed-size rune windows that overlap.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

// NewWindowChunker validates the window parameters up front.
func NewWindowChunker(chunkSize, overlap int) (*WindowChunker, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits the document text and records each chunk's ordinal and rune offset.
func (c *WindowChunker) Chunk(document domain.SourceDocument) ([]domain.Chunk, error) {
	if !document.MimeClass.Valid() {
		return nil, &domain.UnsupportedInputError{
			Name:   document.Name,
			Reason: "unknown mime class " + string(document.MimeClass),
		}
	}
	runes := []rune(document.Text)
	starts := windowStarts(len(runes), c.chunkSize, c.overlap)
	chunks := make([]domain.Chunk, 0, len(starts))
	for i, start := range starts {
		end := min(start+c.chunkSize, len(runes))
		chunks = append(chunks, domain.Chunk{
			SourceID:    document.ID,
			Index:       i,
			Text:        string(runes[start:end]),
			StartOffset: start,
		})
	}
	return chunks, nil
}

// Split is the pure form of the window algorithm over a plain string.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	runes := []rune(text)
	starts := windowStarts(len(runes), chunkSize, overlap)
	out := make([]string, 0, len(starts))
	for _, start := range starts {
		end := min(start+chunkSize, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out, nil
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return &domain.ConfigurationError{Field: "chunk_size", Reason: "must be positive"}
	}
	if overlap < 0 {
		return &domain.ConfigurationError{Field: "overlap", Reason: "must not be negative"}
	}
	if chunkSize-overlap <= 0 {
		return &domain.ConfigurationError{Field: "overlap", Reason: "must be smaller than chunk_size"}
	}
	return nil
}

// windowStarts assumes validated parameters; the step is always positive.
func windowStarts(n, chunkSize, overlap int) []int {
	if n == 0 {
		return nil
	}
	step := chunkSize - overlap
	var starts []int
	for start := 0; ; start += step {
		starts = append(starts, start)
		if start+chunkSize >= n {
			break
		}
	}
	return starts
}
