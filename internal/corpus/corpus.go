package corpus

import (
	"net/url"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Helchan/Marsunso/internal/pinyin"
	"github.com/Helchan/Marsunso/internal/types"
)

// Node is one node of the source bookmark tree before flattening.
type Node struct {
	ID       string
	Label    string
	Target   string
	Children []*Node
}

// IsContainer reports whether the node groups other nodes.
func (n *Node) IsContainer() bool {
	return len(n.Children) > 0 || n.Target == ""
}

// FlattenOptions control how a source tree becomes a flat entry list.
type FlattenOptions struct {
	// Placeholder substitutes for entries whose label is empty.
	Placeholder string

	// Exclude holds doublestar patterns matched against the slash-joined
	// entry path; matching subtrees are dropped whole.
	Exclude []string
}

type flattenItem struct {
	node     *Node
	depth    int
	parentID string
	path     []string
	roms     []types.Romanization
}

// Flatten converts the source trees into a depth-first entry list using an
// explicit worklist, so arbitrarily deep trees cannot overflow the stack.
// Romanizations are computed once here and reused by every query.
func Flatten(roots []*Node, tr *pinyin.Transliterator, opts FlattenOptions) []types.Entry {
	if opts.Placeholder == "" {
		opts.Placeholder = "(untitled)"
	}

	var entries []types.Entry
	stack := make([]flattenItem, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, flattenItem{node: roots[i], depth: 1})
	}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		label := item.node.Label
		if label == "" {
			label = opts.Placeholder
		}

		path := make([]string, len(item.path), len(item.path)+1)
		copy(path, item.path)
		path = append(path, label)

		if excluded(path, opts.Exclude) {
			continue
		}

		roms := make([]types.Romanization, len(item.roms), len(item.roms)+1)
		copy(roms, item.roms)
		roms = append(roms, tr.Transliterate(strings.ToLower(label)))

		entries = append(entries, types.Entry{
			ID:               item.node.ID,
			Label:            label,
			Target:           item.node.Target,
			IsContainer:      item.node.IsContainer(),
			Depth:            item.depth,
			ParentID:         item.parentID,
			Domain:           extractDomain(item.node.Target),
			Path:             path,
			Romanization:     roms[len(roms)-1],
			PathRomanization: roms,
		})

		for i := len(item.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, flattenItem{
				node:     item.node.Children[i],
				depth:    item.depth + 1,
				parentID: item.node.ID,
				path:     path,
				roms:     roms,
			})
		}
	}

	return entries
}

func excluded(path []string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	joined := strings.Join(path, "/")
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, joined); err == nil && ok {
			return true
		}
	}
	return false
}

// extractDomain pulls the hostname out of a target URL, empty when the
// target is absent or unparseable.
func extractDomain(target string) string {
	if target == "" {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Snapshot is an immutable view of the flattened corpus. All lookup
// structures are built once; concurrent readers share the snapshot freely.
type Snapshot struct {
	entries  []types.Entry
	byID     map[string]int
	byDepth  map[int][]int
	children map[string][]int
	version  uint64
	builtAt  time.Time
}

// NewSnapshot indexes a flattened entry list.
func NewSnapshot(entries []types.Entry, version uint64) *Snapshot {
	s := &Snapshot{
		entries:  entries,
		byID:     make(map[string]int, len(entries)),
		byDepth:  make(map[int][]int),
		children: make(map[string][]int),
		version:  version,
		builtAt:  time.Now(),
	}
	for i, e := range entries {
		s.byID[e.ID] = i
		s.byDepth[e.Depth] = append(s.byDepth[e.Depth], i)
		if e.ParentID != "" {
			s.children[e.ParentID] = append(s.children[e.ParentID], i)
		}
	}
	return s
}

// Entries returns every entry in depth-first order. Callers must not mutate
// the returned slice.
func (s *Snapshot) Entries() []types.Entry {
	return s.entries
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Version is the content hash of the source data the snapshot was built from.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// BuiltAt is when the snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// DepthEntries returns the entries at exactly the given depth.
func (s *Snapshot) DepthEntries(depth int) []types.Entry {
	return s.collect(s.byDepth[depth])
}

// Lookup finds an entry by ID.
func (s *Snapshot) Lookup(id string) (types.Entry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return types.Entry{}, false
	}
	return s.entries[i], true
}

// ChildrenOf returns the direct children of the entry with the given ID.
func (s *Snapshot) ChildrenOf(id string) []types.Entry {
	return s.collect(s.children[id])
}

// ResolvePath walks the hierarchy from the top-level entries, resolving each
// segment case-insensitively to the first child whose label matches exactly.
// It returns the entry the final segment resolved to.
func (s *Snapshot) ResolvePath(segments []string) (types.Entry, bool) {
	if len(segments) == 0 {
		return types.Entry{}, false
	}

	candidates := s.byDepth[1]
	var current types.Entry
	for _, segment := range segments {
		found := false
		for _, i := range candidates {
			if strings.EqualFold(s.entries[i].Label, segment) {
				current = s.entries[i]
				candidates = s.children[current.ID]
				found = true
				break
			}
		}
		if !found {
			return types.Entry{}, false
		}
	}
	return current, true
}

func (s *Snapshot) collect(indices []int) []types.Entry {
	if len(indices) == 0 {
		return nil
	}
	out := make([]types.Entry, len(indices))
	for i, idx := range indices {
		out[i] = s.entries[idx]
	}
	return out
}
