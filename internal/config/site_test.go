package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSite_EmptyPathReturnsDefaults(t *testing.T) {
	site, err := LoadSite("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSite(), site)
}

func TestLoadSite_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: Weekly Digest\ncategories:\n  - Go\n  - Databases\n"), 0600))

	site, err := LoadSite(path)
	require.NoError(t, err)
	assert.Equal(t, "Weekly Digest", site.Title)
	assert.Equal(t, []string{"Go", "Databases"}, site.Categories)
	assert.Equal(t, DefaultSite().WelcomeSubject, site.WelcomeSubject)
}

func TestLoadSite_MissingFile(t *testing.T) {
	_, err := LoadSite(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read site config")
}

func TestLoadSite_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [unterminated"), 0600))
	_, err := LoadSite(path)
	assert.ErrorContains(t, err, "parse site config")
}

func TestLoadSite_RejectsBlankedTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("welcome_body: \"\"\nsender_name: \"\"\n"), 0600))

	_, err := LoadSite(path)
	assert.ErrorContains(t, err, "invalid site config")
	assert.ErrorContains(t, err, "field 'WelcomeBody' failed 'required'")
	assert.ErrorContains(t, err, "field 'SenderName' failed 'required'")
}
