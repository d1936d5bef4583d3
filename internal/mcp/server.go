// Package mcpserver exposes scenes and the export pipeline over the
// Model Context Protocol, so AI agents can inspect and export
// whiteboards without the GUI.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sketchbook/internal/service"
)

// Server is the MCP server for the Sketchbook app.
type Server struct {
	mcp     *server.MCPServer
	emitter service.EventEmitter

	// Services (injected from app layer)
	scenes  *service.SceneService
	exports *service.ExportService

	// Active scene context (set by set_active_scene tool)
	activeSceneID string
}

// Deps holds all dependencies passed from the App layer to the MCP
// server.
type Deps struct {
	Emitter service.EventEmitter
	Scenes  *service.SceneService
	Exports *service.ExportService
}

// New creates and configures a new MCP server with all tools.
func New(ctx context.Context, deps Deps) *Server {
	s := &Server{
		emitter: deps.Emitter,
		scenes:  deps.Scenes,
		exports: deps.Exports,
	}

	s.mcp = server.NewMCPServer(
		"sketchbook-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerSceneTools()
	s.registerExportTools()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveSceneID returns the sceneID from tool args or falls back to
// the active scene.
func (s *Server) resolveSceneID(args map[string]any) (string, error) {
	if sid, ok := args["sceneId"].(string); ok && sid != "" {
		return sid, nil
	}
	if s.activeSceneID != "" {
		return s.activeSceneID, nil
	}
	return "", fmt.Errorf("no sceneId provided and no active scene set (use set_active_scene first)")
}
