package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/stdland/internal/lookup"
	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "stdland-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	searcher *searcher.Searcher
	lookup   *lookup.Service
	storage  storage.Storage // Optional; adds index details to get_status
}

// NewServer creates a new MCP server instance. store may be nil.
func NewServer(s *searcher.Searcher, l *lookup.Service, store storage.Storage) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	srv := &Server{
		mcp:      mcpServer,
		searcher: s,
		lookup:   l,
		storage:  store,
	}

	srv.registerTools()
	return srv
}

// Serve starts the MCP server on stdio and blocks until stdin closes.
// Closing the searcher and storage is left to the caller.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchSymbolsTool(), s.handleSearchSymbols)
	s.mcp.AddTool(resolveSymbolTool(), s.handleResolveSymbol)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
