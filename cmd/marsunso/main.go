package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Helchan/Marsunso/internal/config"
	"github.com/Helchan/Marsunso/internal/corpus"
	"github.com/Helchan/Marsunso/internal/display"
	"github.com/Helchan/Marsunso/internal/engine"
	"github.com/Helchan/Marsunso/internal/mcp"
	"github.com/Helchan/Marsunso/internal/pinyin"
	"github.com/Helchan/Marsunso/internal/version"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover()
	}
	if err != nil {
		return nil, err
	}

	if p := c.String("bookmarks"); p != "" {
		cfg.Corpus.BookmarksPath = p
	}
	if n := c.Int("max-results"); n > 0 {
		cfg.Search.MaxResults = n
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Corpus.BookmarksPath == "" {
		return nil, fmt.Errorf("no bookmarks file found; set corpus.bookmarks in %s or pass --bookmarks", config.ConfigFileName)
	}
	return cfg, nil
}

func buildEngine(cfg *config.Config) (*engine.Engine, *corpus.Store) {
	tr := pinyin.New(cfg.Pinyin.Enabled)
	store := corpus.NewStore(
		corpus.NewChromeLoader(cfg.Corpus.BookmarksPath),
		tr,
		corpus.FlattenOptions{
			Placeholder: cfg.Corpus.Placeholder,
			Exclude:     cfg.Corpus.Exclude,
		},
	)
	eng := engine.New(store, tr, engine.Options{
		MaxResults: cfg.Search.MaxResults,
		Separator:  cfg.Search.Separator,
	})
	return eng, store
}

func formatterFor(c *cli.Context, cfg *config.Config) *display.ResultFormatter {
	format := "text"
	if c.Bool("json") {
		format = "json"
	} else if c.Bool("compact") {
		format = "compact"
	}
	return display.NewResultFormatter(display.FormatterOptions{
		Format:    format,
		Color:     format == "text" && !c.Bool("no-color"),
		Separator: cfg.Search.Separator,
		ShowScore: c.Bool("scores"),
	})
}

func main() {
	app := &cli.App{
		Name:    "marsunso",
		Usage:   "Fuzzy bookmark search with pinyin support",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
			},
			&cli.StringFlag{
				Name:    "bookmarks",
				Aliases: []string{"b"},
				Usage:   "Bookmarks file path (overrides config)",
			},
			&cli.IntFlag{
				Name:    "max-results",
				Aliases: []string{"n"},
				Usage:   "Maximum result count (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Search bookmarks; a leading separator addresses a folder path",
				ArgsUsage: "[query]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "JSON output"},
					&cli.BoolFlag{Name: "compact", Usage: "One line per result"},
					&cli.BoolFlag{Name: "no-color", Usage: "Disable highlight colors"},
					&cli.BoolFlag{Name: "scores", Usage: "Show match scores"},
				},
				Action: runSearch,
			},
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List a folder's direct children by path",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "JSON output"},
					&cli.BoolFlag{Name: "compact", Usage: "One line per result"},
					&cli.BoolFlag{Name: "no-color", Usage: "Disable highlight colors"},
				},
				Action: runList,
			},
			{
				Name:   "serve",
				Usage:  "Serve the search engine over MCP on stdio",
				Action: runServe,
			},
			{
				Name:   "status",
				Usage:  "Show corpus statistics",
				Action: runStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSearch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	eng, _ := buildEngine(cfg)

	result, err := eng.Search(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	fmt.Print(formatterFor(c, cfg).Format(result))
	return nil
}

func runList(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	eng, _ := buildEngine(cfg)

	query := c.Args().First()
	if !strings.HasPrefix(query, cfg.Search.Separator) {
		query = cfg.Search.Separator + query
	}

	result, err := eng.Search(c.Context, query)
	if err != nil {
		return err
	}
	fmt.Print(formatterFor(c, cfg).Format(result))
	return nil
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	eng, store := buildEngine(cfg)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Watch.Enabled {
		watcher, err := corpus.NewWatcher(
			cfg.Corpus.BookmarksPath,
			time.Duration(cfg.Watch.DebounceMs)*time.Millisecond,
			store.Invalidate,
		)
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	return mcp.NewServer(eng, store).Run(ctx)
}

func runStatus(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	_, store := buildEngine(cfg)

	snap, err := store.Snapshot(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", version.FullInfo())
	fmt.Printf("Source:   %s\n", cfg.Corpus.BookmarksPath)
	fmt.Printf("Entries:  %d\n", snap.Len())
	fmt.Printf("Version:  %016x\n", snap.Version())
	fmt.Printf("Built at: %s\n", snap.BuiltAt().Format(time.RFC3339))
	return nil
}
