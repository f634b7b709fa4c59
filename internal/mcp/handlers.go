package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Helchan/Marsunso/internal/types"
)

// SearchParams are the arguments of the search tool.
type SearchParams struct {
	Query string `json:"query"`
}

// ListChildrenParams are the arguments of the list_children tool.
type ListChildrenParams struct {
	ID string `json:"id"`
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params SearchParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	result, err := s.engine.Search(ctx, params.Query)
	if err != nil {
		return createErrorResponse(fmt.Sprintf("search failed: %v", err)), nil
	}
	return createJSONResponse(result)
}

func (s *Server) handleListChildren(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params ListChildrenParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if params.ID == "" {
		return createErrorResponse("id is required"), nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return createErrorResponse(fmt.Sprintf("corpus unavailable: %v", err)), nil
	}
	if _, ok := snap.Lookup(params.ID); !ok {
		return createErrorResponse(fmt.Sprintf("no entry with id %q", params.ID)), nil
	}

	children := snap.ChildrenOf(params.ID)
	if children == nil {
		children = []types.Entry{}
	}
	return createJSONResponse(map[string]any{
		"id":       params.ID,
		"children": children,
	})
}

func (s *Server) handleCorpusStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return createErrorResponse(fmt.Sprintf("corpus unavailable: %v", err)), nil
	}

	return createJSONResponse(map[string]any{
		"entries":  snap.Len(),
		"version":  fmt.Sprintf("%016x", snap.Version()),
		"built_at": snap.BuiltAt(),
	})
}
