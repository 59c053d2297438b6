package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook/internal/domain"
)

const notes = `# Photosynthesis

Photosynthesis converts light energy into chemical energy stored in glucose.
Chlorophyll in the chloroplast absorbs mostly red and blue light.
The light reactions split water and release oxygen as a by-product.
The Calvin cycle fixes carbon dioxide into sugars using ATP and NADPH.
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	// a missing config file yields defaults without touching the home directory
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeSource(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte(notes), 0o644))
	return path
}

func TestGenerateCommand_Raw(t *testing.T) {
	out, _, err := execute(t, "generate", "--raw", "-t", "summary", writeSource(t))
	require.NoError(t, err)
	assert.Contains(t, out, "# Summary")
	assert.Contains(t, out, "Photosynthesis")
}

func TestGenerateCommand_ShowPrompt(t *testing.T) {
	out, _, err := execute(t, "generate", "--raw", "--show-prompt", "-t", "faq", "-q", "light reactions", writeSource(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Context:\n")
	assert.Contains(t, out, "Focus:\nlight reactions")
	assert.Contains(t, out, "# FAQ")
}

func TestGenerateCommand_UnknownTemplate(t *testing.T) {
	_, _, err := execute(t, "generate", "--raw", "-t", "poem", writeSource(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTemplate)
}

func TestGenerateCommand_NoUsableSources(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")
	_, errOut, err := execute(t, "generate", "--raw", missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoSources)
	assert.Contains(t, errOut, "skipped "+missing)
}

func TestGenerateCommand_RequiresFiles(t *testing.T) {
	_, _, err := execute(t, "generate")
	require.Error(t, err)
}

func TestRetrieveCommand(t *testing.T) {
	out, _, err := execute(t, "retrieve", "-k", "1", "carbon dioxide sugars", writeSource(t))
	require.NoError(t, err)
	assert.Contains(t, out, "[1] notes.md #0 @0")
	assert.NotContains(t, out, "[2]")
}

func TestTemplatesCommand(t *testing.T) {
	out, _, err := execute(t, "templates")
	require.NoError(t, err)
	for _, id := range []string{"summary", "study-guide", "briefing", "faq", "critique"} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "Briefing Doc")
}

func TestRootCommand_InvalidLogFormat(t *testing.T) {
	_, _, err := execute(t, "--log-format", "xml", "templates")
	require.Error(t, err)
	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
