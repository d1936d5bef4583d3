package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	mcpserver "sketchbook/internal/mcp"
	"sketchbook/internal/service"
	"sketchbook/internal/storage"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails
// frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout
// with no GUI. It initializes storage, services, and runs the MCP
// server until interrupted.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "sketchbook")
	dbPath := filepath.Join(dataDir, "sketchbook.db")

	db, err := storage.New(dbPath, filepath.Join(dataDir, "scenes"))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	emitter := noopEmitter{}

	scenesSvc := service.NewSceneService(
		storage.NewSceneStore(db),
		storage.NewElementStore(db),
		storage.NewFileStore(db),
		db.DataDir(),
		emitter,
	)
	exportsSvc := service.NewExportService(scenesSvc, emitter)

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter: emitter,
		Scenes:  scenesSvc,
		Exports: exportsSvc,
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
