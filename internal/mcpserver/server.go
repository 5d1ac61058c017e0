// ABOUTME: MCP server setup for the patient data store.
// ABOUTME: Wraps the MCP server with storage and an analysis snapshot cache.
package mcpserver

import (
	"context"

	"github.com/nmrastogi/patient-mcp/internal/analysis"
	"github.com/nmrastogi/patient-mcp/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	store     *storage.DB
	cache     *analysis.Cache
	patientID string
}

// NewServer creates a new MCP server reading the given patient's data.
func NewServer(store *storage.DB, patientID string) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "patient-mcp",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		store:     store,
		cache:     analysis.NewCache(store),
		patientID: patientID,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
