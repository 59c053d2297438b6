// Package source turns files on disk into source documents.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"notebook/internal/domain"
)

// PDFExtractor returns the text of each page of a PDF file.
type PDFExtractor interface {
	Pages(ctx context.Context, path string) ([]string, error)
}

// Pdftotext extracts pages with the poppler pdftotext command.
type Pdftotext struct {
	Command string
}

func (p Pdftotext) Pages(ctx context.Context, path string) ([]string, error) {
	command := p.Command
	if command == "" {
		command = "pdftotext"
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, "-enc", "UTF-8", "-q", path, "-")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s not installed: %w", command, err)
		}
		return nil, fmt.Errorf("%s: %w: %s", command, err, strings.TrimSpace(stderr.String()))
	}
	// pages end with a form feed
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

// Skipped is a file the loader could not turn into a document.
type Skipped struct {
	Path string
	Err  error
}

// Report is the outcome of one Load: the documents read and the files skipped.
type Report struct {
	Documents []domain.SourceDocument
	Skipped   []Skipped
}

type Loader struct {
	pdf    PDFExtractor
	newID  func() string
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Loader)

func WithPDFExtractor(e PDFExtractor) Option {
	return func(l *Loader) { l.pdf = e }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		pdf:    Pdftotext{},
		newID:  uuid.NewString,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load expands each pattern and reads every matching file. A file that cannot
// be read or is not a supported type is skipped and reported; only a bad
// pattern or a cancelled context fails the whole call.
func (l *Loader) Load(ctx context.Context, patterns ...string) (Report, error) {
	var report Report
	seen := map[string]struct{}{}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return Report{}, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if matches == nil {
			matches = []string{pattern}
		}
		for _, path := range matches {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}

			doc, err := l.LoadFile(ctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return Report{}, ctx.Err()
				}
				l.logger.Warn("skipping source", "path", path, "error", err)
				report.Skipped = append(report.Skipped, Skipped{Path: path, Err: err})
				continue
			}
			report.Documents = append(report.Documents, doc)
		}
	}
	return report, nil
}

// LoadFile reads a single file into a SourceDocument with a fresh id.
func (l *Loader) LoadFile(ctx context.Context, path string) (domain.SourceDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.SourceDocument{}, err
	}
	if info.IsDir() {
		return domain.SourceDocument{}, &domain.UnsupportedInputError{Name: path, Reason: "is a directory"}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.SourceDocument{}, err
	}
	class, err := Classify(filepath.Base(path), content)
	if err != nil {
		return domain.SourceDocument{}, err
	}

	text := string(content)
	if class == domain.MimePdf {
		pages, err := l.pdf.Pages(ctx, path)
		if err != nil {
			return domain.SourceDocument{}, &domain.UnsupportedInputError{Name: path, Reason: err.Error()}
		}
		text = JoinPages(pages)
	}
	return domain.SourceDocument{
		ID:         l.newID(),
		Name:       filepath.Base(path),
		MimeClass:  class,
		Text:       text,
		IngestedAt: l.now(),
	}, nil
}

// JoinPages concatenates page texts, each introduced by a "[Page N]" marker.
func JoinPages(pages []string) string {
	var sb strings.Builder
	for i, page := range pages {
		fmt.Fprintf(&sb, "[Page %d]\n%s\n\n", i+1, strings.Join(strings.Fields(page), " "))
	}
	return sb.String()
}
