package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helchan/Marsunso/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 15, cfg.Search.MaxResults)
	assert.Equal(t, "/", cfg.Search.Separator)
	assert.True(t, cfg.Pinyin.Enabled)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 300, cfg.Watch.DebounceMs)
	assert.Equal(t, "(untitled)", cfg.Corpus.Placeholder)
	assert.NoError(t, cfg.Validate())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
search {
    max_results 25
    separator "|"
}
pinyin {
    enabled false
}
corpus {
    bookmarks "/tmp/Bookmarks"
    exclude "**/archive" "**/trash/**"
    placeholder "(无标题)"
}
watch {
    enabled false
    debounce_ms 500
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, "|", cfg.Search.Separator)
	assert.False(t, cfg.Pinyin.Enabled)
	assert.Equal(t, "/tmp/Bookmarks", cfg.Corpus.BookmarksPath)
	assert.Equal(t, []string{"**/archive", "**/trash/**"}, cfg.Corpus.Exclude)
	assert.Equal(t, "(无标题)", cfg.Corpus.Placeholder)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
search {
    max_results 5
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, "/", cfg.Search.Separator)
	assert.True(t, cfg.Pinyin.Enabled)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.kdl"))
	require.NoError(t, err)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestLoadRejectsInvalidSyntax(t *testing.T) {
	path := writeConfig(t, `search { max_results `)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }, "search.max_results"},
		{"multi-char separator", func(c *Config) { c.Search.Separator = "//" }, "search.separator"},
		{"empty separator", func(c *Config) { c.Search.Separator = "" }, "search.separator"},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMs = -1 }, "watch.debounce_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var cerr *errors.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.key, cerr.Key)
		})
	}
}
