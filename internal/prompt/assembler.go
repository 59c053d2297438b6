// Package prompt turns a template and retrieved chunks into the text handed to a generator.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"notebook/internal/domain"
)

// Separator sits between consecutive context chunks.
const Separator = "\n\n---\n\n"

// Prompt is an assembled generation prompt.
type Prompt struct {
	Text string
	// Included holds the chunks that made it into Text, in result order.
	Included domain.RetrievalResult
	// Dropped counts the lowest-scoring chunks left out to respect the size limit.
	Dropped int
}

// Truncated reports whether any retrieved chunk was left out.
func (p Prompt) Truncated() bool { return p.Dropped > 0 }

type Assembler struct {
	maxSize int
	sizer   Sizer
}

type Option func(*Assembler)

// WithMaxSize limits the prompt size; zero or less means unlimited.
func WithMaxSize(n int) Option {
	return func(a *Assembler) { a.maxSize = n }
}

func WithSizer(s Sizer) Option {
	return func(a *Assembler) {
		if s != nil {
			a.sizer = s
		}
	}
}

func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{sizer: RuneSizer{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the prompt for template from retrieved chunks.
func (a *Assembler) Assemble(template domain.Template, retrieved domain.RetrievalResult) (Prompt, error) {
	return a.AssembleFocused(template, "", retrieved)
}

// AssembleFocused is Assemble with an optional user focus line.
// Chunks are never cut; when the prompt is too large whole chunks are removed
// from the low-score end until it fits.
func (a *Assembler) AssembleFocused(template domain.Template, focus string, retrieved domain.RetrievalResult) (Prompt, error) {
	structure, err := json.Marshal(template.Structure)
	if err != nil {
		return Prompt{}, fmt.Errorf("encode structure: %w", err)
	}
	if template.Structure == nil {
		structure = []byte("[]")
	}

	for n := len(retrieved); n >= 0; n-- {
		text := render(template, string(structure), focus, retrieved[:n])
		if a.maxSize <= 0 || a.sizer.Size(text) <= a.maxSize {
			return Prompt{Text: text, Included: retrieved[:n:n], Dropped: len(retrieved) - n}, nil
		}
	}
	frame := render(template, string(structure), focus, nil)
	return Prompt{}, &domain.ConfigurationError{
		Field:  "prompt.max_size",
		Reason: fmt.Sprintf("template %q needs %d %s without context, limit is %d", template.ID, a.sizer.Size(frame), a.sizer.Unit(), a.maxSize),
	}
}

func render(template domain.Template, structure, focus string, chunks domain.RetrievalResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an intelligent assistant. Use the following context documents to generate a %q.\n\n", template.Name)

	sb.WriteString("Structure:\n")
	sb.WriteString(structure)
	sb.WriteString("\n\n")

	sb.WriteString("Instructions:\n")
	sb.WriteString(template.SystemPrompt)
	sb.WriteString("\n\n")

	if focus = strings.TrimSpace(focus); focus != "" {
		sb.WriteString("Focus:\n")
		sb.WriteString(focus)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(chunks.Texts(), Separator))
	sb.WriteString("\n\n")

	sb.WriteString("Response:\n")
	return sb.String()
}
