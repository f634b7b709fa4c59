package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helchan/Marsunso/internal/corpus"
	apperrors "github.com/Helchan/Marsunso/internal/errors"
	"github.com/Helchan/Marsunso/internal/pinyin"
	"github.com/Helchan/Marsunso/internal/types"
)

// staticSource serves one prebuilt snapshot.
type staticSource struct {
	snap *corpus.Snapshot
	err  error
}

func (s *staticSource) Snapshot(ctx context.Context) (*corpus.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

func sampleTree() []*corpus.Node {
	return []*corpus.Node{
		{
			ID:    "1",
			Label: "书签栏",
			Children: []*corpus.Node{
				{
					ID:    "3",
					Label: "我爱学习",
					Children: []*corpus.Node{
						{
							ID:    "4",
							Label: "学习天地",
							Children: []*corpus.Node{
								{ID: "5", Label: "背诵课文", Target: "https://example.com/recite"},
							},
						},
						{ID: "6", Label: "读书乐园", Target: "https://reading.example.com/garden"},
					},
				},
				{ID: "7", Label: "Go Blog", Target: "https://go.dev/blog"},
			},
		},
		{
			ID:    "8",
			Label: "其他书签",
			Children: []*corpus.Node{
				{ID: "9", Label: "Rust Book", Target: "https://doc.rust-lang.org/book"},
			},
		},
	}
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	tr := pinyin.New(true)
	snap := corpus.NewSnapshot(corpus.Flatten(sampleTree(), tr, corpus.FlattenOptions{}), 1)
	return New(&staticSource{snap: snap}, tr, opts)
}

func labels(entries []types.RankedEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

func TestSearchEmptyQueryListsSecondLevel(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, types.ModeDefault, result.Mode)
	assert.Equal(t, []string{"我爱学习", "Go Blog", "Rust Book"}, labels(result.Entries))
}

func TestSearchDefaultModeCapped(t *testing.T) {
	eng := newTestEngine(t, Options{MaxResults: 2})

	result, err := eng.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, result.Entries, 2)
}

func TestSearchMalformedQuery(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "/书签栏 /学习")
	require.NoError(t, err)
	assert.Equal(t, types.ModeDefault, result.Mode)
	assert.Empty(t, result.Entries)
}

func TestSearchPathModeListsChildren(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "/书签栏/我爱学习/学习天地")
	require.NoError(t, err)
	assert.Equal(t, types.ModePath, result.Mode)
	assert.Equal(t, []string{"背诵课文"}, labels(result.Entries))
}

func TestSearchBareSeparatorListsRoots(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, types.ModePath, result.Mode)
	assert.Equal(t, []string{"书签栏", "其他书签"}, labels(result.Entries))
}

func TestSearchPathModeUnresolved(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "/书签栏/不存在")
	require.NoError(t, err)
	assert.Equal(t, types.ModePath, result.Mode)
	assert.Empty(t, result.Entries)
}

func TestSearchPathModeWithRemainder(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "/书签栏/我爱学习 课文")
	require.NoError(t, err)
	assert.Equal(t, types.ModePath, result.Mode)
	assert.Equal(t, []string{"背诵课文"}, labels(result.Entries))
	assert.NotEmpty(t, result.Entries[0].LabelRanges)
}

func TestSearchPathRemainderScopedToDescendants(t *testing.T) {
	eng := newTestEngine(t, Options{})

	// "book" matches Rust Book, but it lives outside 书签栏.
	result, err := eng.Search(context.Background(), "/书签栏 rust")
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestSearchPathRemainderMatchesResolvedEntry(t *testing.T) {
	eng := newTestEngine(t, Options{})

	// The resolved folder is its own descendant; a remainder matching its
	// label returns it.
	result, err := eng.Search(context.Background(), "/书签栏 书签")
	require.NoError(t, err)
	assert.Equal(t, types.ModePath, result.Mode)
	assert.Contains(t, labels(result.Entries), "书签栏")
}

func TestSearchFuzzySingleTokenLiteral(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "学习")
	require.NoError(t, err)
	assert.Equal(t, types.ModeFuzzy, result.Mode)

	got := labels(result.Entries)
	assert.Contains(t, got, "我爱学习")
	assert.Contains(t, got, "学习天地")
	for _, re := range result.Entries {
		assert.Equal(t, types.ModeFuzzy, re.Mode)
		assert.Greater(t, re.Score, 0.0)
	}
}

func TestSearchFuzzyPinyin(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "xuexi")
	require.NoError(t, err)
	got := labels(result.Entries)
	assert.Contains(t, got, "学习天地")
	assert.Contains(t, got, "我爱学习")
}

func TestSearchFuzzyInitials(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "bskw")
	require.NoError(t, err)
	assert.Contains(t, labels(result.Entries), "背诵课文")
}

func TestSearchFuzzyLatinAgainstNativeCorpusMisses(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "qqq")
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestSearchFuzzyHierarchical(t *testing.T) {
	eng := newTestEngine(t, Options{})

	result, err := eng.Search(context.Background(), "学习 读书")
	require.NoError(t, err)
	require.NotEmpty(t, result.Entries)
	assert.Equal(t, "读书乐园", result.Entries[0].Label)
	assert.NotEmpty(t, result.Entries[0].PathRanges)
}

func TestSearchTrailingSpaceExpandsChildren(t *testing.T) {
	eng := newTestEngine(t, Options{})

	// 学习天地 matches; the trailing space swaps in its children.
	result, err := eng.Search(context.Background(), "学习天地 ")
	require.NoError(t, err)
	assert.Contains(t, labels(result.Entries), "背诵课文")
	assert.NotContains(t, labels(result.Entries), "学习天地")

	for _, re := range result.Entries {
		if re.Label == "背诵课文" {
			// Path highlights recomputed against the child's own ancestry.
			assert.NotEmpty(t, re.PathRanges)
		}
	}
}

func TestSearchSanitization(t *testing.T) {
	eng := newTestEngine(t, Options{})

	// Stripped punctuation and collapsed whitespace match the clean query.
	result, err := eng.Search(context.Background(), `  "学习"   天地`)
	require.NoError(t, err)
	clean, err := eng.Search(context.Background(), "学习 天地")
	require.NoError(t, err)
	assert.Equal(t, labels(clean.Entries), labels(result.Entries))
}

func TestSearchTruncation(t *testing.T) {
	eng := newTestEngine(t, Options{MaxResults: 1})

	result, err := eng.Search(context.Background(), "学习")
	require.NoError(t, err)
	assert.Len(t, result.Entries, 1)
}

func TestSearchDeterministicOrder(t *testing.T) {
	eng := newTestEngine(t, Options{})

	first, err := eng.Search(context.Background(), "学习")
	require.NoError(t, err)
	second, err := eng.Search(context.Background(), "学习")
	require.NoError(t, err)
	assert.Equal(t, labels(first.Entries), labels(second.Entries))
}

func TestSearchCorpusFailureSurfaces(t *testing.T) {
	tr := pinyin.New(true)
	src := &staticSource{err: apperrors.NewCorpusError("rebuild", apperrors.ErrCorpusUnavailable)}
	eng := New(src, tr, Options{})

	_, err := eng.Search(context.Background(), "学习")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCorpusUnavailable))
}
