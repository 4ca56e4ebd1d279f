package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/flowdex/internal/indexer"
	"github.com/dshills/flowdex/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "flowdex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with engine dependencies
type Server struct {
	mcp      *server.MCPServer
	searcher *searcher.Searcher
	indexer  *indexer.Indexer
	root     string
	logger   *zap.Logger
}

// NewServer creates a new MCP server instance over an already-open engine.
// root is the workflow document root used by reindex_workflows.
func NewServer(s *searcher.Searcher, idx *indexer.Indexer, root string, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	srv := &Server{
		mcp:      mcpServer,
		searcher: s,
		indexer:  idx,
		root:     root,
		logger:   logger,
	}
	srv.registerTools()
	return srv
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server starting", zap.String("root", s.root))
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchWorkflowsTool(), s.handleSearchWorkflows)
	s.mcp.AddTool(getWorkflowTool(), s.handleGetWorkflow)
	s.mcp.AddTool(workflowStatsTool(), s.handleWorkflowStats)
	s.mcp.AddTool(reindexWorkflowsTool(), s.handleReindexWorkflows)
}
