// Package extractive builds documents from the retrieved context alone, without a model.
package extractive

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"notebook/internal/domain"
)

const DefaultMaxSentences = 5

var sentencePattern = regexp.MustCompile(`(?s)[^.!?]+[.!?]+`)

// Generator ranks context sentences by word frequency (stopwords filtered) and
// lays the best ones out under the template's section headings.
type Generator struct {
	maxSentences int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

var _ domain.Generator = (*Generator)(nil)

// NewGenerator creates a frequency-based extractive generator.
func NewGenerator(maxSentences int) *Generator {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	return &Generator{
		maxSentences: maxSentences,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (g *Generator) Name() string { return "extractive" }

func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	picked := g.Rank(strings.Join(req.Context.Texts(), "\n\n"), g.maxSentences)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", req.Template.Name)
	if len(picked) == 0 {
		sb.WriteString("\n_No source material was retrieved._\n")
		return sb.String(), nil
	}
	sections := req.Template.Structure
	if len(sections) == 0 {
		sections = []string{"Highlights"}
	}
	// spread sentences over the sections in document order
	per := int(math.Ceil(float64(len(picked)) / float64(len(sections))))
	for i, section := range sections {
		lo := i * per
		if lo >= len(picked) {
			break
		}
		hi := min(lo+per, len(picked))
		fmt.Fprintf(&sb, "\n## %s\n\n", section)
		for _, s := range picked[lo:hi] {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
	}
	return sb.String(), nil
}

// Rank returns up to max sentences of text with the highest frequency
// score, in their original order.
func (g *Generator) Rank(text string, max int) []string {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}
	// Compute word frequencies
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range g.tokens(sent) {
			if _, ok := g.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := g.tokens(sent)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(toks)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	max = min(max, len(scores))

	// Keep original order among selected
	selected := make([]int, max)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, max)
	for _, idx := range selected {
		out = append(out, strings.Join(strings.Fields(sentences[idx]), " "))
	}
	return out
}

func (g *Generator) tokens(text string) []string {
	return g.tokenPattern.FindAllString(strings.ToLower(text), -1)
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
