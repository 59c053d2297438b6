package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"notebook/internal/config"
	"notebook/internal/domain"
	"notebook/internal/embedding/local"
	embedopenai "notebook/internal/embedding/openai"
	"notebook/internal/generation/extractive"
	genopenai "notebook/internal/generation/openai"
	"notebook/internal/logger"
	"notebook/internal/prompt"
	"notebook/internal/retriever"
	"notebook/internal/service"
	"notebook/internal/source"
	"notebook/internal/templates"
)

// app is the fully wired pipeline for one command invocation.
type app struct {
	cfg      *config.AppConfig
	logger   *slog.Logger
	catalog  *templates.Catalog
	notebook *service.Notebook
	loader   *source.Loader
}

func loadConfig(opts *rootOptions) (*config.AppConfig, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	var (
		cfg *config.AppConfig
		err error
	)
	if opts.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(opts.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCatalog(cfg *config.AppConfig) (*templates.Catalog, error) {
	if cfg.Templates.Path == "" {
		return templates.Default(), nil
	}
	c, err := templates.LoadFile(cfg.Templates.Path)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return c, nil
}

func newApp(opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "logging.level", Reason: err.Error()}
	}
	log := logger.New(logger.WithLevel(level), logger.WithFormat(cfg.Logging.Format), logger.WithWriter(logOut))

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	sizer, err := prompt.NewSizer(cfg.Prompt.Unit, cfg.Prompt.Encoding)
	if err != nil {
		return nil, err
	}

	emb, batchSize := buildEmbedder(cfg)
	r := retriever.New(emb,
		retriever.WithBatchSize(batchSize),
		retriever.WithConcurrency(cfg.Retrieval.Concurrency),
		retriever.WithLogger(log),
	)
	nb := service.NewNotebook(r,
		prompt.NewAssembler(prompt.WithMaxSize(cfg.Prompt.MaxSize), prompt.WithSizer(sizer)),
		buildGenerator(cfg),
		service.Settings{ChunkSize: cfg.Chunker.ChunkSize, Overlap: cfg.Chunker.Overlap, TopK: cfg.Retrieval.TopK},
		service.WithCatalog(catalog),
		service.WithLogger(log),
	)
	return &app{
		cfg:      cfg,
		logger:   log,
		catalog:  catalog,
		notebook: nb,
		loader:   source.NewLoader(source.WithLogger(log)),
	}, nil
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, int) {
	if cfg.Embedder.Type == "openai" {
		o := cfg.Embedder.OpenAI
		return embedopenai.NewClient(embedopenai.Config{
			BaseURL:           o.BaseURL,
			APIKey:            cfg.EmbedderAPIKey(),
			Model:             o.Model,
			Dimensions:        o.Dimensions,
			Timeout:           time.Duration(o.TimeoutSecs) * time.Second,
			BatchSize:         o.BatchSize,
			RequestsPerSecond: o.RequestsPerSecond,
		}), o.BatchSize
	}
	return local.NewEmbedder(cfg.Embedder.Local.Dimension), 0
}

func buildGenerator(cfg *config.AppConfig) domain.Generator {
	if cfg.Generator.Type == "openai" {
		o := cfg.Generator.OpenAI
		return genopenai.NewGenerator(genopenai.Config{
			BaseURL:     o.BaseURL,
			APIKey:      cfg.GeneratorAPIKey(),
			Model:       o.Model,
			MaxTokens:   o.MaxTokens,
			Temperature: o.Temperature,
			Timeout:     time.Duration(o.TimeoutSecs) * time.Second,
		})
	}
	return extractive.NewGenerator(cfg.Generator.Extractive.MaxSentences)
}

// loadSources reads the files matching patterns into the notebook. Unreadable
// files are reported on w and skipped; having no usable file at all is an error.
func (a *app) loadSources(ctx context.Context, w io.Writer, patterns []string) error {
	report, err := a.loader.Load(ctx, patterns...)
	if err != nil {
		return err
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(w, "skipped %s: %v\n", s.Path, s.Err)
	}
	if len(report.Documents) == 0 {
		return domain.ErrNoSources
	}
	return a.notebook.AddSources(report.Documents...)
}
