package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Helchan/Marsunso/internal/corpus"
	"github.com/Helchan/Marsunso/internal/engine"
	"github.com/Helchan/Marsunso/internal/version"
)

// Server exposes the bookmark search engine over the Model Context Protocol
// on stdio.
type Server struct {
	server *mcp.Server
	engine *engine.Engine
	store  *corpus.Store
}

// NewServer creates the MCP server and registers its tools.
func NewServer(eng *engine.Engine, store *corpus.Store) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "marsunso-mcp-server",
			Version: version.Version,
		}, nil),
		engine: eng,
		store:  store,
	}
	s.registerTools()
	return s
}

// Run serves MCP requests over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "search",
		Description: "Search bookmarks by label, URL, folder path, or pinyin. Supports path queries with a leading separator (e.g. \"/folder sub\") and multi-token hierarchical queries.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Search query; empty lists the top levels",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_children",
		Description: "List the direct children of a bookmark folder by entry ID.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"id": {
					Type:        "string",
					Description: "Entry ID of the folder",
				},
			},
			Required: []string{"id"},
		},
	}, s.handleListChildren)

	s.server.AddTool(&mcp.Tool{
		Name:        "corpus_stats",
		Description: "Report corpus size, content version, and build time of the current snapshot.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleCorpusStats)
}
