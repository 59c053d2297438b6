package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"notebook/internal/domain"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions,omitempty"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// LocalEmbedderConfig configures the offline hashing embedder.
type LocalEmbedderConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Local  *LocalEmbedderConfig  `yaml:"local,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

type RetrievalConfig struct {
	TopK        int `yaml:"top_k"`
	Concurrency int `yaml:"concurrency"`
}

// PromptConfig bounds the assembled prompt. MaxSize 0 means unlimited.
type PromptConfig struct {
	MaxSize  int    `yaml:"max_size"`
	Unit     string `yaml:"unit"`
	Encoding string `yaml:"encoding,omitempty"`
}

type OpenAIGeneratorConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

type ExtractiveGeneratorConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// GeneratorConfig selects and configures the document generator.
type GeneratorConfig struct {
	Type       string                     `yaml:"type"`
	OpenAI     *OpenAIGeneratorConfig     `yaml:"openai,omitempty"`
	Extractive *ExtractiveGeneratorConfig `yaml:"extractive,omitempty"`
}

// TemplatesConfig points at an optional catalog replacing the built-in templates.
type TemplatesConfig struct {
	Path string `yaml:"path,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Generator GeneratorConfig `yaml:"generator"`
	Templates TemplatesConfig `yaml:"templates"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/notebook/config.yaml.
// If neither exists, it writes defaults to ~/.config/notebook/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadEnv reads KEY=value pairs from the given .env files (default ./.env)
// without overriding variables already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// EmbedderAPIKey resolves the embedding credential from the environment.
func (c *AppConfig) EmbedderAPIKey() string {
	if c.Embedder.OpenAI == nil {
		return ""
	}
	return os.Getenv(c.Embedder.OpenAI.APIKeyEnv)
}

// GeneratorAPIKey resolves the generation credential from the environment.
func (c *AppConfig) GeneratorAPIKey() string {
	if c.Generator.OpenAI == nil {
		return ""
	}
	return os.Getenv(c.Generator.OpenAI.APIKeyEnv)
}

// Validate reports the first invalid setting as a *domain.ConfigurationError.
// Credentials are not checked here; clients check them on every call.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "openai", "local":
	default:
		return &domain.ConfigurationError{Field: "embedder.type", Reason: fmt.Sprintf("unknown embedder %q", c.Embedder.Type)}
	}
	if c.Chunker.ChunkSize <= 0 {
		return &domain.ConfigurationError{Field: "chunker.chunk_size", Reason: "must be positive"}
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.ChunkSize {
		return &domain.ConfigurationError{Field: "chunker.overlap", Reason: "must be in [0, chunk_size)"}
	}
	if c.Retrieval.TopK < 1 {
		return &domain.ConfigurationError{Field: "retrieval.top_k", Reason: "must be at least 1"}
	}
	if c.Retrieval.Concurrency < 1 {
		return &domain.ConfigurationError{Field: "retrieval.concurrency", Reason: "must be at least 1"}
	}
	if c.Prompt.MaxSize < 0 {
		return &domain.ConfigurationError{Field: "prompt.max_size", Reason: "must not be negative"}
	}
	switch c.Prompt.Unit {
	case "runes", "tokens":
	default:
		return &domain.ConfigurationError{Field: "prompt.unit", Reason: fmt.Sprintf("unknown unit %q", c.Prompt.Unit)}
	}
	switch c.Generator.Type {
	case "openai", "extractive":
	default:
		return &domain.ConfigurationError{Field: "generator.type", Reason: fmt.Sprintf("unknown generator %q", c.Generator.Type)}
	}
	switch c.Logging.Format {
	case "text", "json", "pretty":
	default:
		return &domain.ConfigurationError{Field: "logging.format", Reason: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "notebook", "config.yaml"), nil
}

// Default returns the configuration used when no file is present: offline
// embedding and extractive generation, so nothing needs a credential.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder:  EmbedderConfig{Type: "local"},
		Generator: GeneratorConfig{Type: "extractive"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "local"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 200
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 10
	}
	if cfg.Retrieval.Concurrency == 0 {
		cfg.Retrieval.Concurrency = 4
	}
	if cfg.Prompt.Unit == "" {
		cfg.Prompt.Unit = "runes"
	}
	if cfg.Prompt.Unit == "tokens" && cfg.Prompt.Encoding == "" {
		cfg.Prompt.Encoding = "cl100k_base"
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "extractive"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.BatchSize == 0 {
			o.BatchSize = 100
		}
	case "local":
		if cfg.Embedder.Local == nil {
			cfg.Embedder.Local = &LocalEmbedderConfig{}
		}
		if cfg.Embedder.Local.Dimension == 0 {
			cfg.Embedder.Local.Dimension = 512
		}
	}

	switch cfg.Generator.Type {
	case "openai":
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIGeneratorConfig{}
		}
		o := cfg.Generator.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "gpt-4o-mini"
		}
		if o.MaxTokens == 0 {
			o.MaxTokens = 2048
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 120
		}
	case "extractive":
		if cfg.Generator.Extractive == nil {
			cfg.Generator.Extractive = &ExtractiveGeneratorConfig{}
		}
		if cfg.Generator.Extractive.MaxSentences == 0 {
			cfg.Generator.Extractive.MaxSentences = 8
		}
	}
}
