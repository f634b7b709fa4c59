package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helchan/Marsunso/internal/errors"
)

func TestChromeLoaderLoad(t *testing.T) {
	loader := NewChromeLoader(filepath.Join("testdata", "Bookmarks"))

	roots, version, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, version)
	require.Len(t, roots, 3)

	bar := roots[0]
	assert.Equal(t, "1", bar.ID)
	assert.Equal(t, "书签栏", bar.Label)
	assert.True(t, bar.IsContainer())
	require.Len(t, bar.Children, 2)

	study := bar.Children[0]
	assert.Equal(t, "我爱学习", study.Label)
	require.Len(t, study.Children, 2)
	assert.Equal(t, "学习天地", study.Children[0].Label)
	assert.Equal(t, "https://reading.example.com/garden", study.Children[1].Target)

	blog := bar.Children[1]
	assert.Equal(t, "Go Blog", blog.Label)
	assert.Equal(t, "https://go.dev/blog", blog.Target)
	assert.Empty(t, blog.Children)

	// Empty synced root still parses as a container.
	assert.Equal(t, "移动设备书签", roots[2].Label)
	assert.Empty(t, roots[2].Children)
}

func TestChromeLoaderVersionTracksContent(t *testing.T) {
	loader := NewChromeLoader(filepath.Join("testdata", "Bookmarks"))

	_, v1, err := loader.Load(context.Background())
	require.NoError(t, err)
	_, v2, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestChromeLoaderMissingFile(t *testing.T) {
	loader := NewChromeLoader(filepath.Join(t.TempDir(), "nope"))

	_, _, err := loader.Load(context.Background())
	require.Error(t, err)

	var cerr *errors.CorpusError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, errors.ErrorTypeLoad, cerr.Type)
	assert.Equal(t, "read bookmarks", cerr.Operation)
}

func TestChromeLoaderInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Bookmarks")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := NewChromeLoader(path).Load(context.Background())
	require.Error(t, err)

	var cerr *errors.CorpusError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, errors.ErrorTypeLoad, cerr.Type)
	assert.Equal(t, "parse bookmarks", cerr.Operation)
}

func TestChromeLoaderMissingRoots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Bookmarks")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1}`), 0o644))

	_, _, err := NewChromeLoader(path).Load(context.Background())
	require.Error(t, err)
}

func TestChromeLoaderCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewChromeLoader(filepath.Join("testdata", "Bookmarks")).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
