package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook/internal/domain"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
	assert.Equal(t, 4, cfg.Retrieval.Concurrency)
	assert.Equal(t, "runes", cfg.Prompt.Unit)
	assert.Equal(t, 512, cfg.Embedder.Local.Dimension)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OpenAISections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
    requests_per_second: 2.5
chunker:
  chunk_size: 500
  overlap: 50
prompt:
  max_size: 8000
  unit: tokens
generator:
  type: openai
  openai:
    api_key_env: MY_CHAT_KEY
    temperature: 0.2
logging:
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 100, cfg.Embedder.OpenAI.BatchSize)
	assert.InDelta(t, 2.5, cfg.Embedder.OpenAI.RequestsPerSecond, 1e-9)
	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, "cl100k_base", cfg.Prompt.Encoding)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.OpenAI.Model)
	assert.Equal(t, 2048, cfg.Generator.OpenAI.MaxTokens)
	assert.Equal(t, "json", cfg.Logging.Format)

	t.Setenv("OPENAI_API_KEY", "embed-key")
	t.Setenv("MY_CHAT_KEY", "chat-key")
	assert.Equal(t, "embed-key", cfg.EmbedderAPIKey())
	assert.Equal(t, "chat-key", cfg.GeneratorAPIKey())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Retrieval.TopK = 3
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"embedder type", func(c *AppConfig) { c.Embedder.Type = "magic" }, "embedder.type"},
		{"chunk size", func(c *AppConfig) { c.Chunker.ChunkSize = -1 }, "chunker.chunk_size"},
		{"overlap equals size", func(c *AppConfig) { c.Chunker.Overlap = c.Chunker.ChunkSize }, "chunker.overlap"},
		{"negative overlap", func(c *AppConfig) { c.Chunker.Overlap = -1 }, "chunker.overlap"},
		{"top k", func(c *AppConfig) { c.Retrieval.TopK = 0 }, "retrieval.top_k"},
		{"concurrency", func(c *AppConfig) { c.Retrieval.Concurrency = 0 }, "retrieval.concurrency"},
		{"max size", func(c *AppConfig) { c.Prompt.MaxSize = -5 }, "prompt.max_size"},
		{"unit", func(c *AppConfig) { c.Prompt.Unit = "words" }, "prompt.unit"},
		{"generator", func(c *AppConfig) { c.Generator.Type = "poet" }, "generator.type"},
		{"log format", func(c *AppConfig) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NOTEBOOK_TEST_KEY=from-file\n"), 0o644))

	t.Setenv("NOTEBOOK_TEST_KEY", "")
	require.NoError(t, os.Unsetenv("NOTEBOOK_TEST_KEY"))
	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("NOTEBOOK_TEST_KEY"))

	t.Setenv("NOTEBOOK_TEST_KEY", "from-env")
	require.NoError(t, LoadEnv(envFile))
	assert.Equal(t, "from-env", os.Getenv("NOTEBOOK_TEST_KEY"))
}
