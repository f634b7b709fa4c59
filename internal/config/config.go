package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/Helchan/Marsunso/internal/errors"
)

// ConfigFileName is looked up in the working directory and the user's home.
const ConfigFileName = ".marsunso.kdl"

// Config is the full application configuration.
type Config struct {
	Search SearchConfig
	Pinyin PinyinConfig
	Corpus CorpusConfig
	Watch  WatchConfig
}

// SearchConfig tunes the query pipeline.
type SearchConfig struct {
	MaxResults int
	Separator  string
}

// PinyinConfig controls transliteration.
type PinyinConfig struct {
	Enabled bool
}

// CorpusConfig locates and filters the bookmark source.
type CorpusConfig struct {
	BookmarksPath string
	Exclude       []string
	Placeholder   string
}

// WatchConfig controls source-file watching.
type WatchConfig struct {
	Enabled    bool
	DebounceMs int
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			MaxResults: 15,
			Separator:  "/",
		},
		Pinyin: PinyinConfig{Enabled: true},
		Corpus: CorpusConfig{
			BookmarksPath: defaultBookmarksPath(),
			Placeholder:   "(untitled)",
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 300,
		},
	}
}

// Load reads a KDL config file, layered over the defaults. A missing file is
// not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := parseKDL(cfg, string(content)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover finds a config file next to the working directory or in the
// user's home, returning the defaults when neither exists.
func Discover() (*Config, error) {
	if wd, err := os.Getwd(); err == nil {
		p := filepath.Join(wd, ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ConfigFileName)
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// Validate rejects values the engine cannot work with.
func (c *Config) Validate() error {
	if c.Search.MaxResults <= 0 {
		return errors.NewConfigError("search.max_results", c.Search.MaxResults, "must be positive")
	}
	if len([]rune(c.Search.Separator)) != 1 {
		return errors.NewConfigError("search.separator", c.Search.Separator, "must be a single character")
	}
	if c.Watch.DebounceMs < 0 {
		return errors.NewConfigError("watch.debounce_ms", c.Watch.DebounceMs, "must not be negative")
	}
	return nil
}

func parseKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				case "separator":
					if s, ok := firstStringArg(cn); ok {
						cfg.Search.Separator = s
					}
				}
			}
		case "pinyin":
			for _, cn := range n.Children {
				if nodeName(cn) == "enabled" {
					if b, ok := firstBoolArg(cn); ok {
						cfg.Pinyin.Enabled = b
					}
				}
			}
		case "corpus":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "bookmarks":
					if s, ok := firstStringArg(cn); ok {
						cfg.Corpus.BookmarksPath = s
					}
				case "exclude":
					cfg.Corpus.Exclude = collectStringArgs(cn)
				case "placeholder":
					if s, ok := firstStringArg(cn); ok {
						cfg.Corpus.Placeholder = s
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		}
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if len(n.Arguments) == 0 {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// defaultBookmarksPath guesses the Chrome profile location per platform;
// empty when no guess applies.
func defaultBookmarksPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidates := []string{
		filepath.Join(home, ".config", "google-chrome", "Default", "Bookmarks"),
		filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "Bookmarks"),
		filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data", "Default", "Bookmarks"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
