package corpus

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/gjson"

	"github.com/Helchan/Marsunso/internal/errors"
)

// Loader supplies the source bookmark trees plus a content version used to
// detect whether a snapshot is still current.
type Loader interface {
	Load(ctx context.Context) ([]*Node, uint64, error)
}

// ChromeLoader reads a Chromium-format Bookmarks file. The format is a JSON
// document with fixed root folders under "roots"; nodes carry id, name,
// type ("url" or "folder"), url, and children.
type ChromeLoader struct {
	path string
}

func NewChromeLoader(path string) *ChromeLoader {
	return &ChromeLoader{path: path}
}

// Path returns the bookmarks file being loaded.
func (l *ChromeLoader) Path() string {
	return l.path
}

var (
	chromeRoots = []string{"bookmark_bar", "other", "synced"}

	errInvalidJSON  = stderrors.New("not valid JSON")
	errMissingRoots = stderrors.New("missing roots object")
)

// Load parses the bookmarks file into source trees. The returned version is
// a hash of the raw file contents.
func (l *ChromeLoader) Load(ctx context.Context) ([]*Node, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, 0, errors.NewLoadError("read bookmarks", err).WithSource(l.path)
	}

	if !gjson.ValidBytes(data) {
		return nil, 0, errors.NewLoadError("parse bookmarks", errInvalidJSON).WithSource(l.path)
	}

	roots := gjson.GetBytes(data, "roots")
	if !roots.Exists() {
		return nil, 0, errors.NewLoadError("parse bookmarks", errMissingRoots).WithSource(l.path)
	}

	// The fixed root folders (bookmark bar, other, synced) become the top
	// level of the corpus under their display names.
	var nodes []*Node
	for _, key := range chromeRoots {
		root := roots.Get(key)
		if !root.Exists() {
			continue
		}
		nodes = append(nodes, parseChromeNode(root))
	}

	return nodes, xxhash.Sum64(data), nil
}

func parseChromeNode(v gjson.Result) *Node {
	n := &Node{
		ID:    v.Get("id").String(),
		Label: v.Get("name").String(),
	}
	if v.Get("type").String() == "url" {
		n.Target = v.Get("url").String()
		return n
	}
	v.Get("children").ForEach(func(_, child gjson.Result) bool {
		if c := parseChromeNode(child); c != nil {
			n.Children = append(n.Children, c)
		}
		return true
	})
	return n
}
