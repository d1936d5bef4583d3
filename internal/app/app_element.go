package app

import (
	"github.com/google/uuid"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"sketchbook/internal/domain"
	"sketchbook/internal/storage"
)

// ============================================================
// Elements
// ============================================================

func (a *App) CreateElement(sceneID, elementType string, x, y, w, h float64) (*domain.Element, error) {
	e := &domain.Element{
		ID:          uuid.New().String(),
		SceneID:     sceneID,
		Type:        domain.ElementType(elementType),
		X:           x,
		Y:           y,
		Width:       w,
		Height:      h,
		StrokeColor: "#1e1e1e",
		StrokeWidth: 2,
		Opacity:     1,
	}
	created, err := a.scenes.CreateElement(e)
	if err != nil {
		return nil, err
	}
	a.exports.NotifySceneChanged(sceneID)
	return created, nil
}

func (a *App) UpdateElement(e domain.Element) error {
	if err := a.scenes.UpdateElement(&e); err != nil {
		return err
	}
	a.exports.NotifySceneChanged(e.SceneID)
	return nil
}

func (a *App) DeleteElement(sceneID, elementID string) error {
	if err := a.scenes.DeleteElement(elementID); err != nil {
		return err
	}
	a.exports.NotifySceneChanged(sceneID)
	return nil
}

// ============================================================
// Attachments
// ============================================================

// SaveAttachment stores a pasted or imported image on disk and starts
// watching it for external edits.
func (a *App) SaveAttachment(sceneID, dataURL string) (*domain.File, error) {
	f, err := a.scenes.SaveAttachment(sceneID, dataURL)
	if err != nil {
		return nil, err
	}
	if a.watcher != nil {
		// Watching is best-effort; the attachment itself is saved.
		if err := a.watcher.WatchFile(sceneID, f.ID, f.Path); err != nil {
			wailsRuntime.LogErrorf(a.ctx, "watch attachment %s: %v", f.ID, err)
		}
	}
	return f, nil
}

// GetAttachmentData returns an attachment as a base64 data URL.
// Called lazily by the frontend for each image element.
func (a *App) GetAttachmentData(fileID string) (string, error) {
	return a.scenes.GetAttachmentData(fileID)
}

// ============================================================
// Undo Tree
// ============================================================

func (a *App) LoadUndoTree(sceneID string) (*storage.UndoTree, error) {
	return a.undos.LoadTree(sceneID)
}

func (a *App) PushUndoNode(sceneID, nodeID, parentID, label, snapshotJSON string) error {
	_, err := a.undos.PushNode(sceneID, nodeID, parentID, label, snapshotJSON)
	return err
}

func (a *App) GoToUndoNode(sceneID, nodeID string) error {
	return a.undos.GoTo(sceneID, nodeID)
}

// RestoreSceneElements fully replaces a scene's elements (used by
// undo/redo).
func (a *App) RestoreSceneElements(sceneID string, elements []domain.Element) error {
	if err := a.scenes.ReplaceSceneElements(sceneID, elements); err != nil {
		return err
	}
	a.exports.NotifySceneChanged(sceneID)
	return nil
}
