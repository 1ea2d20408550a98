package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/pdfqa-mcp/internal/app"
)

const (
	// ServerName is the MCP server name
	ServerName = "pdfqa-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	app    *app.App
	logger *slog.Logger
}

// NewServer creates an MCP server exposing a's operations as tools
func NewServer(a *app.App, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mcp: server.NewMCPServer(
			ServerName,
			ServerVersion,
			server.WithToolCapabilities(false),
		),
		app:    a,
		logger: logger,
	}

	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown. The app
// is closed on return.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.app.Close() }()
	s.logger.Info("serving MCP over stdio", "name", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(ingestPDFsTool(), s.handleIngestPDFs)
	s.mcp.AddTool(askQuestionTool(), s.handleAskQuestion)
	s.mcp.AddTool(searchChunksTool(), s.handleSearchChunks)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
