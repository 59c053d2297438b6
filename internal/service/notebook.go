package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"notebook/internal/domain"
	"notebook/internal/prompt"
	"notebook/internal/retriever"
	"notebook/internal/templates"
)

// Settings are the retrieval parameters applied to every generation.
type Settings struct {
	ChunkSize int
	Overlap   int
	TopK      int
}

// Result is everything one generation produced.
type Result struct {
	Template domain.Template
	// SearchText is what the retrieval query embedded: the user query, or the template name.
	SearchText string
	Prompt     prompt.Prompt
	Text       string
	Elapsed    time.Duration
}

// Notebook is one user session: an ordered set of sources and the pipeline
// that turns them into generated documents.
type Notebook struct {
	retriever *retriever.Retriever
	assembler *prompt.Assembler
	generator domain.Generator
	catalog   *templates.Catalog
	settings  Settings
	logger    *slog.Logger

	mu        sync.Mutex
	sources   []domain.SourceDocument
	lastIndex domain.VectorIndex
}

type Option func(*Notebook)

func WithLogger(l *slog.Logger) Option {
	return func(n *Notebook) {
		if l != nil {
			n.logger = l
		}
	}
}

func WithCatalog(c *templates.Catalog) Option {
	return func(n *Notebook) {
		if c != nil {
			n.catalog = c
		}
	}
}

func NewNotebook(r *retriever.Retriever, a *prompt.Assembler, g domain.Generator, settings Settings, opts ...Option) *Notebook {
	n := &Notebook{
		retriever: r,
		assembler: a,
		generator: g,
		catalog:   templates.Default(),
		settings:  settings,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Templates lists the catalog the notebook generates from.
func (n *Notebook) Templates() []domain.Template { return n.catalog.All() }

// AddSources appends documents to the session. The whole call is rejected if
// any document repeats a known id or has an unsupported class.
func (n *Notebook) AddSources(docs ...domain.SourceDocument) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	known := make(map[string]struct{}, len(n.sources)+len(docs))
	for _, s := range n.sources {
		known[s.ID] = struct{}{}
	}
	for _, d := range docs {
		if d.ID == "" {
			return &domain.ConfigurationError{Field: "source.id", Reason: fmt.Sprintf("source %q has no id", d.Name)}
		}
		if !d.MimeClass.Valid() {
			return &domain.UnsupportedInputError{Name: d.Name, Reason: fmt.Sprintf("unknown class %q", d.MimeClass)}
		}
		if _, dup := known[d.ID]; dup {
			return fmt.Errorf("%w: source %q", domain.ErrDuplicateEntry, d.ID)
		}
		known[d.ID] = struct{}{}
	}
	n.sources = append(n.sources, docs...)
	return nil
}

// RemoveSource drops a source and purges its chunks from the most recent index.
func (n *Notebook) RemoveSource(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := slices.IndexFunc(n.sources, func(d domain.SourceDocument) bool { return d.ID == id })
	if i < 0 {
		return false
	}
	n.sources = slices.Delete(n.sources, i, i+1)
	if n.lastIndex != nil {
		purged := n.lastIndex.Remove(id)
		n.logger.Debug("purged source chunks", "source_id", id, "chunks", purged)
	}
	return true
}

// Sources returns the session's documents in the order they were added.
func (n *Notebook) Sources() []domain.SourceDocument {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.sources)
}

// LastIndex is the index built by the most recent Generate or Retrieve, or nil.
func (n *Notebook) LastIndex() domain.VectorIndex {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastIndex
}

// Generate builds a fresh index over the current sources, retrieves the chunks
// closest to query (or to the template name when query is blank), assembles
// the prompt and hands it to the generator.
func (n *Notebook) Generate(ctx context.Context, templateID, query string) (*Result, error) {
	start := time.Now()
	tpl, err := n.catalog.Lookup(templateID)
	if err != nil {
		return nil, err
	}
	searchText := strings.TrimSpace(query)
	if searchText == "" {
		searchText = tpl.Name
	}

	retrieved, err := n.Retrieve(ctx, searchText, n.settings.TopK)
	if err != nil {
		return nil, err
	}

	p, err := n.assembler.AssembleFocused(tpl, query, retrieved)
	if err != nil {
		return nil, err
	}
	if p.Truncated() {
		n.logger.Warn("prompt over size limit, dropped lowest-scoring chunks",
			"template", tpl.ID, "dropped", p.Dropped, "included", len(p.Included))
	}

	text, err := n.generator.Generate(ctx, domain.GenerationRequest{Template: tpl, Prompt: p.Text, Context: p.Included})
	if err != nil {
		return nil, err
	}
	res := &Result{Template: tpl, SearchText: searchText, Prompt: p, Text: text, Elapsed: time.Since(start)}
	n.logger.Info("generated document",
		"template", tpl.ID,
		"generator", n.generator.Name(),
		"chunks", len(p.Included),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// Retrieve indexes the current sources and returns the k chunks closest to query.
func (n *Notebook) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	sources := n.Sources()
	if len(sources) == 0 {
		return nil, domain.ErrNoSources
	}
	index, err := n.retriever.Ingest(ctx, sources, n.settings.ChunkSize, n.settings.Overlap)
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	// sources removed while ingest ran must not come back with the new index
	for _, d := range sources {
		if !slices.ContainsFunc(n.sources, func(s domain.SourceDocument) bool { return s.ID == d.ID }) {
			index.Remove(d.ID)
		}
	}
	n.lastIndex = index
	n.mu.Unlock()

	return n.retriever.Retrieve(ctx, index, query, k)
}
