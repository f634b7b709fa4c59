package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/Helchan/Marsunso/internal/corpus"
	"github.com/Helchan/Marsunso/internal/match"
	"github.com/Helchan/Marsunso/internal/pinyin"
	"github.com/Helchan/Marsunso/internal/types"
)

const (
	// DefaultMaxResults caps result lists in every mode.
	DefaultMaxResults = 15

	// DefaultSeparator joins and addresses hierarchy levels.
	DefaultSeparator = "/"
)

// Options tune engine behavior; zero values take the defaults above.
type Options struct {
	MaxResults int
	Separator  string
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.Separator == "" {
		o.Separator = DefaultSeparator
	}
	return o
}

// Source supplies the frozen corpus snapshot for one search call.
type Source interface {
	Snapshot(ctx context.Context) (*corpus.Snapshot, error)
}

// Result is one search response: the echo of the resolved query and mode,
// plus ranked entries capped at the configured maximum.
type Result struct {
	Query   string              `json:"query"`
	Mode    types.SearchMode    `json:"mode"`
	Entries []types.RankedEntry `json:"entries"`
}

// Engine is the top-level search entry point. It sanitizes the raw query,
// picks a mode, dispatches to the matching pipeline, and sorts and truncates
// the results. Engines are stateless between calls and safe for concurrent
// use as long as the Source is.
type Engine struct {
	source    Source
	hierarchy *match.HierarchyMatcher
	opts      Options
}

func New(source Source, tr *pinyin.Transliterator, opts Options) *Engine {
	return &Engine{
		source:    source,
		hierarchy: match.NewHierarchyMatcher(match.NewTextMatcher(tr)),
		opts:      opts.withDefaults(),
	}
}

// Search runs one query. The only surfaced error is a corpus failure; every
// other condition, including malformed queries, resolves to an empty or
// partial result list.
func (e *Engine) Search(ctx context.Context, raw string) (*Result, error) {
	snap, err := e.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sanitized := e.sanitize(raw)
	trimmed := strings.TrimSpace(sanitized)
	expand := trimmed != "" && strings.HasSuffix(sanitized, " ")

	switch {
	case trimmed == "":
		return e.searchDefault(snap), nil

	case strings.HasPrefix(trimmed, e.opts.Separator):
		if strings.Contains(sanitized, " "+e.opts.Separator) {
			// Separator after a space never addresses anything.
			return &Result{Query: sanitized, Mode: types.ModeDefault}, nil
		}
		return e.searchPath(snap, trimmed, sanitized, expand), nil

	default:
		return e.searchFuzzy(snap, trimmed, sanitized, expand), nil
	}
}

// sanitize strips the punctuation denylist and collapses whitespace and
// separator runs. Leading and trailing spaces survive; a trailing space is a
// mode signal, not noise.
func (e *Engine) sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case '\'', '"', '`', '<', '>', '\\', ';', ':':
		default:
			b.WriteRune(r)
		}
	}

	s := collapseRuns(b.String(), " ", func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	sep := []rune(e.opts.Separator)[0]
	return collapseRuns(s, e.opts.Separator, func(r rune) bool { return r == sep })
}

func collapseRuns(s, replacement string, isRun func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if isRun(r) {
			if !inRun {
				b.WriteString(replacement)
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

// searchDefault serves the second hierarchy level in natural order.
func (e *Engine) searchDefault(snap *corpus.Snapshot) *Result {
	return e.finish(e.truncate(naturalOrder(snap.DepthEntries(2))), "", types.ModeDefault)
}

// naturalOrder wraps unranked entries, preserving corpus order.
func naturalOrder(entries []types.Entry) []types.RankedEntry {
	ranked := make([]types.RankedEntry, len(entries))
	for i, entry := range entries {
		ranked[i] = types.RankedEntry{Entry: entry}
	}
	return ranked
}

// searchFuzzy matches tokens against the whole corpus.
func (e *Engine) searchFuzzy(snap *corpus.Snapshot, trimmed, query string, expand bool) *Result {
	tokens := strings.Fields(strings.ToLower(trimmed))
	ranked := e.hierarchy.Match(snap.Entries(), tokens)
	e.sortRanked(ranked, trimmed)
	if expand {
		ranked = e.expandChildren(snap, ranked, tokens)
	}
	return e.finish(e.truncate(ranked), query, types.ModeFuzzy)
}

// searchPath resolves the leading path component to an entry, then either
// lists its children or fuzzy-matches the remainder among its descendants.
func (e *Engine) searchPath(snap *corpus.Snapshot, trimmed, query string, expand bool) *Result {
	pathPart := trimmed
	remainder := ""
	if i := strings.Index(trimmed, " "); i >= 0 {
		pathPart, remainder = trimmed[:i], trimmed[i+1:]
	}

	segments := splitNonEmpty(pathPart, e.opts.Separator)
	if len(segments) == 0 && remainder == "" {
		// A bare separator lists the hierarchy roots.
		return e.finish(e.truncate(naturalOrder(snap.DepthEntries(1))), query, types.ModePath)
	}

	resolved, ok := snap.ResolvePath(segments)
	if !ok {
		return e.finish(nil, query, types.ModePath)
	}

	if remainder == "" {
		return e.finish(e.truncate(naturalOrder(snap.ChildrenOf(resolved.ID))), query, types.ModePath)
	}

	tokens := strings.Fields(strings.ToLower(remainder))
	ranked := e.hierarchy.Match(descendantsOf(snap, resolved), tokens)
	e.sortRanked(ranked, remainder)
	if expand {
		ranked = e.expandChildren(snap, ranked, tokens)
	}
	return e.finish(e.truncate(ranked), query, types.ModePath)
}

// descendantsOf returns the entries whose path passes through the resolved
// entry's label, the resolved entry included.
func descendantsOf(snap *corpus.Snapshot, resolved types.Entry) []types.Entry {
	var out []types.Entry
	for _, entry := range snap.Entries() {
		for _, layer := range entry.Path {
			if layer == resolved.Label {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}

// expandChildren replaces each matched entry with its direct children,
// recomputing path highlights against each child's own ancestor chain. The
// parent's score carries over so ordering is preserved.
func (e *Engine) expandChildren(snap *corpus.Snapshot, ranked []types.RankedEntry, tokens []string) []types.RankedEntry {
	var out []types.RankedEntry
	seen := make(map[string]bool)
	for _, re := range ranked {
		for _, child := range snap.ChildrenOf(re.ID) {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true

			childRE := types.RankedEntry{Entry: child, Score: re.Score}
			parentPath := child.ParentPath()
			var roms []types.Romanization
			if len(child.PathRomanization) > 0 {
				roms = child.PathRomanization[:len(child.PathRomanization)-1]
			}
			if ranges, ok := e.hierarchy.MatchParentRanges(tokens, parentPath, roms); ok {
				childRE.PathRanges = ranges
			}
			out = append(out, childRE)
		}
	}
	return out
}

// sortRanked orders by score descending, breaking ties with Jaro-Winkler
// similarity between the query and the label and finally by entry ID so
// equal-scoring results are stable across runs.
func (e *Engine) sortRanked(ranked []types.RankedEntry, query string) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		si := labelSimilarity(query, ranked[i].Label)
		sj := labelSimilarity(query, ranked[j].Label)
		if si != sj {
			return si > sj
		}
		return ranked[i].ID < ranked[j].ID
	})
}

func labelSimilarity(query, label string) float32 {
	sim, err := edlib.StringsSimilarity(strings.ToLower(query), strings.ToLower(label), edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return sim
}

func (e *Engine) truncate(ranked []types.RankedEntry) []types.RankedEntry {
	if len(ranked) > e.opts.MaxResults {
		return ranked[:e.opts.MaxResults]
	}
	return ranked
}

func (e *Engine) finish(ranked []types.RankedEntry, query string, mode types.SearchMode) *Result {
	for i := range ranked {
		ranked[i].Query = query
		ranked[i].Mode = mode
	}
	return &Result{Query: query, Mode: mode, Entries: ranked}
}

func splitNonEmpty(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
