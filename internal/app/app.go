package app

import (
	"context"
	"os"
	"path/filepath"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"sketchbook/internal/domain"
	"sketchbook/internal/service"
	"sketchbook/internal/storage"
	"sketchbook/internal/watch"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context

	db      *storage.DB
	scenes  *service.SceneService
	exports *service.ExportService
	backups *service.BackupService
	undos   *storage.UndoStore
	watcher *watch.Watcher
}

// New creates a new App.
func New() *App {
	return &App{}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "sketchbook")
	dbPath := filepath.Join(dataDir, "sketchbook.db")

	db, err := storage.New(dbPath, filepath.Join(dataDir, "scenes"))
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open database: %v", err)
		return
	}
	a.db = db

	emitter := &wailsEmitter{}
	a.scenes = service.NewSceneService(
		storage.NewSceneStore(db),
		storage.NewElementStore(db),
		storage.NewFileStore(db),
		db.DataDir(),
		emitter,
	)
	a.exports = service.NewExportService(a.scenes, emitter)
	a.undos = storage.NewUndoStore(db)

	// Attachment watcher: re-render open previews when an imported
	// image is edited externally
	watcher, err := watch.New(func(sceneID, fileID string) {
		a.exports.NotifyFilesChanged(sceneID)
		wailsRuntime.EventsEmit(ctx, "file:changed", map[string]string{
			"sceneId": sceneID,
			"fileId":  fileID,
		})
	})
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to create file watcher: %v", err)
	}
	a.watcher = watcher

	a.backups = service.NewBackupService(a.scenes, emitter, dataDir)
	if err := a.backups.Start(ctx, ""); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start backups: %v", err)
	}
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.backups != nil {
		a.backups.Stop(ctx)
	}
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.exports != nil {
		a.exports.CloseSession()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// ============================================================
// Scenes
// ============================================================

func (a *App) ListScenes() ([]domain.Scene, error) {
	return a.scenes.ListScenes()
}

func (a *App) CreateScene(name string) (*domain.Scene, error) {
	return a.scenes.CreateScene(name)
}

func (a *App) GetSceneState(sceneID string) (*domain.SceneState, error) {
	wailsRuntime.LogInfof(a.ctx, "[GetSceneState] loading scene: %s", sceneID)
	return a.scenes.GetSceneState(sceneID)
}

func (a *App) RenameScene(id, name string) error {
	return a.scenes.RenameScene(id, name)
}

func (a *App) UpdateSceneBackground(id, color string) error {
	sc, err := a.scenes.GetScene(id)
	if err != nil {
		return err
	}
	sc.ViewBackgroundColor = color
	return a.scenes.UpdateScene(sc)
}

func (a *App) DeleteScene(id string) error {
	if a.watcher != nil {
		a.watcher.StopScene(id)
	}
	a.undos.ClearScene(id)
	return a.scenes.DeleteScene(a.ctx, id)
}

// RunBackupNow triggers an immediate backup of all scenes.
func (a *App) RunBackupNow() error {
	return a.backups.RunOnce(a.ctx)
}
