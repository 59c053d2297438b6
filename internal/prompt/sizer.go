package prompt

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"notebook/internal/domain"
)

// DefaultEncoding is the tiktoken encoding used by current OpenAI chat models.
const DefaultEncoding = "cl100k_base"

// Sizer measures prompt text in the unit the size limit is expressed in.
type Sizer interface {
	Size(text string) int
	Unit() string
}

// RuneSizer counts Unicode code points.
type RuneSizer struct{}

func (RuneSizer) Size(text string) int { return utf8.RuneCountInString(text) }
func (RuneSizer) Unit() string         { return "runes" }

// TokenSizer counts model tokens with a tiktoken encoding.
type TokenSizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenSizer loads the named encoding.
func NewTokenSizer(encoding string) (*TokenSizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "prompt.encoding", Reason: fmt.Sprintf("load %q: %v", encoding, err)}
	}
	return &TokenSizer{encoding: enc}, nil
}

func (s *TokenSizer) Size(text string) int {
	return len(s.encoding.Encode(text, nil, nil))
}

func (s *TokenSizer) Unit() string { return "tokens" }

// NewSizer returns the sizer for a configured unit ("runes" or "tokens").
func NewSizer(unit, encoding string) (Sizer, error) {
	switch unit {
	case "", "runes":
		return RuneSizer{}, nil
	case "tokens":
		return NewTokenSizer(encoding)
	default:
		return nil, &domain.ConfigurationError{Field: "prompt.unit", Reason: fmt.Sprintf("unknown unit %q", unit)}
	}
}
