package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebook/internal/domain"
)

func TestDefault(t *testing.T) {
	all := Default().All()
	require.Len(t, all, 5)

	ids := make([]string, len(all))
	for i, tpl := range all {
		ids[i] = tpl.ID
		assert.NotEmpty(t, tpl.SystemPrompt, tpl.ID)
		assert.NotEmpty(t, tpl.Structure, tpl.ID)
	}
	assert.Equal(t, []string{"summary", "study-guide", "briefing", "faq", "critique"}, ids)
}

func TestLookup(t *testing.T) {
	c := Default()

	tpl, err := c.Lookup("briefing")
	require.NoError(t, err)
	assert.Equal(t, "Briefing Doc", tpl.Name)
	assert.Equal(t, []string{"Situation", "Background", "Assessment", "Recommendation"}, tpl.Structure)

	tpl, err = c.Lookup("study guide")
	require.NoError(t, err)
	assert.Equal(t, "study-guide", tpl.ID)

	_, err = c.Lookup("poem")
	assert.ErrorIs(t, err, domain.ErrUnknownTemplate)
}

func TestAllReturnsCopies(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Structure[0] = "changed"
	all[0].Name = "changed"

	tpl, err := c.Lookup("summary")
	require.NoError(t, err)
	assert.Equal(t, "Summary", tpl.Name)
	assert.Equal(t, "Executive Summary", tpl.Structure[0])
}

func TestLookupReturnsCopies(t *testing.T) {
	c := Default()
	for _, key := range []string{"summary", "SUMMARY"} {
		tpl, err := c.Lookup(key)
		require.NoError(t, err)
		tpl.Structure[0] = "changed"
	}

	tpl, err := c.Lookup("summary")
	require.NoError(t, err)
	assert.Equal(t, "Executive Summary", tpl.Structure[0])
	assert.Equal(t, "Executive Summary", c.All()[0].Structure[0])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing name", "- id: a\n"},
		{"duplicate id", "- id: a\n  name: A\n- id: a\n  name: B\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}

	_, err := Parse([]byte("{not a list"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- id: timeline
  name: Timeline
  structure: [Events]
  system_prompt: List the events in order.
`), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	tpl, err := c.Lookup("Timeline")
	require.NoError(t, err)
	assert.Equal(t, "List the events in order.", tpl.SystemPrompt)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
