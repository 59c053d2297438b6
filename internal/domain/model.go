package domain

import (
	"strings"
	"time"
)

// MimeClass is the coarse content class of a source document.
type MimeClass string

const (
	MimePdf       MimeClass = "pdf"
	MimePlainText MimeClass = "text"
	MimeMarkdown  MimeClass = "markdown"
)

// Valid reports whether c is one of the supported classes.
func (c MimeClass) Valid() bool {
	switch c {
	case MimePdf, MimePlainText, MimeMarkdown:
		return true
	}
	return false
}

// SourceDocument is one extracted document supplied by the caller.
// It is treated as immutable once created.
type SourceDocument struct {
	ID         string
	Name       string
	MimeClass  MimeClass
	Text       string
	IngestedAt time.Time
}

// Chunk is a bounded substring of a source document.
// StartOffset is measured in runes from the start of the source text.
type Chunk struct {
	SourceID    string
	Index       int
	Text        string
	StartOffset int
}

// Vector is a fixed-length embedding.
type Vector []float64

// IndexEntry pairs a chunk with its embedding.
type IndexEntry struct {
	Chunk  Chunk
	Vector Vector
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// RetrievalResult is ordered by descending score.
type RetrievalResult []SearchResult

// Texts returns the chunk texts in result order.
func (r RetrievalResult) Texts() []string {
	out := make([]string, len(r))
	for i, res := range r {
		out[i] = res.Chunk.Text
	}
	return out
}

// Template describes one kind of generated document.
type Template struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Structure    []string `yaml:"structure"`
	SystemPrompt string   `yaml:"system_prompt"`
}

// Matches reports whether key names this template by id or by name.
func (t Template) Matches(key string) bool {
	key = strings.TrimSpace(key)
	return strings.EqualFold(t.ID, key) || strings.EqualFold(t.Name, key)
}
