package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook/internal/domain"
)

var summary = domain.Template{
	ID:           "summary",
	Name:         "Summary",
	Structure:    []string{"Executive Summary", "Key Takeaways (Bulleted list)", "Conclusion"},
	SystemPrompt: "Summarize the provided content. Focus on capturing the main arguments and conclusions. be concise.",
}

func result(texts ...string) domain.RetrievalResult {
	out := make(domain.RetrievalResult, len(texts))
	for i, t := range texts {
		out[i] = domain.SearchResult{
			Chunk: domain.Chunk{SourceID: "doc", Index: i, Text: t},
			Score: 1 - float64(i)/10,
		}
	}
	return out
}

func TestAssemble_SummaryWithTwoChunks(t *testing.T) {
	a := NewAssembler()
	p, err := a.Assemble(summary, result("Cells divide by mitosis.", "Meiosis halves the chromosome count."))
	require.NoError(t, err)

	assert.Contains(t, p.Text, `generate a "Summary"`)
	assert.Contains(t, p.Text, `["Executive Summary","Key Takeaways (Bulleted list)","Conclusion"]`)
	assert.Contains(t, p.Text, summary.SystemPrompt)
	assert.Contains(t, p.Text, "Cells divide by mitosis."+Separator+"Meiosis halves the chromosome count.")
	assert.Less(t, strings.Index(p.Text, "mitosis"), strings.Index(p.Text, "Meiosis"))
	assert.True(t, strings.HasSuffix(p.Text, "Response:\n"))
	assert.NotContains(t, p.Text, "Focus:")
	assert.Len(t, p.Included, 2)
	assert.False(t, p.Truncated())
}

func TestAssemble_EmptyContext(t *testing.T) {
	p, err := NewAssembler().Assemble(summary, nil)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Context:\n\n\nResponse:")
	assert.Empty(t, p.Included)
	assert.Equal(t, 0, p.Dropped)
}

func TestAssemble_NilStructure(t *testing.T) {
	p, err := NewAssembler().Assemble(domain.Template{ID: "x", Name: "X"}, nil)
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Structure:\n[]\n")
}

func TestAssembleFocused(t *testing.T) {
	p, err := NewAssembler().AssembleFocused(summary, "  the second chapter ", result("a"))
	require.NoError(t, err)
	assert.Contains(t, p.Text, "Focus:\nthe second chapter\n\nContext:\na")
}

func TestAssemble_DropsLowestScoringChunks(t *testing.T) {
	chunks := result("first chunk text", "second chunk text", "third chunk text")

	one, err := NewAssembler().Assemble(summary, chunks[:1])
	require.NoError(t, err)
	limit := RuneSizer{}.Size(one.Text)

	p, err := NewAssembler(WithMaxSize(limit)).Assemble(summary, chunks)
	require.NoError(t, err)
	assert.Equal(t, one.Text, p.Text)
	assert.Equal(t, 2, p.Dropped)
	assert.True(t, p.Truncated())
	require.Len(t, p.Included, 1)
	assert.Equal(t, "first chunk text", p.Included[0].Chunk.Text)
	assert.NotContains(t, p.Text, "second chunk text")
}

func TestAssemble_NeverCutsChunks(t *testing.T) {
	chunks := result("short", strings.Repeat("ü", 500))
	full, err := NewAssembler().Assemble(summary, chunks)
	require.NoError(t, err)

	p, err := NewAssembler(WithMaxSize(RuneSizer{}.Size(full.Text)-1)).Assemble(summary, chunks)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Dropped)
	assert.NotContains(t, p.Text, "ü")
}

func TestAssemble_FrameTooLarge(t *testing.T) {
	_, err := NewAssembler(WithMaxSize(10)).Assemble(summary, result("a"))
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "prompt.max_size", cfgErr.Field)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNewSizer(t *testing.T) {
	s, err := NewSizer("", "")
	require.NoError(t, err)
	assert.Equal(t, "runes", s.Unit())
	assert.Equal(t, 3, s.Size("äöü"))

	_, err = NewSizer("words", "")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewSizer("tokens", "no_such_encoding")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
