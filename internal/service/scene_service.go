package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"sketchbook/internal/domain"
	"sketchbook/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Scene Service — business logic for scenes and their elements
// ─────────────────────────────────────────────────────────────

// SceneService manages the lifecycle of scenes, elements and
// attachment files.
type SceneService struct {
	scenes   *storage.SceneStore
	elements *storage.ElementStore
	files    *storage.FileStore
	dataDir  string
	emitter  EventEmitter
}

// NewSceneService creates a SceneService.
func NewSceneService(scenes *storage.SceneStore, elements *storage.ElementStore, files *storage.FileStore, dataDir string, emitter EventEmitter) *SceneService {
	return &SceneService{scenes: scenes, elements: elements, files: files, dataDir: dataDir, emitter: emitter}
}

// CreateScene creates a new empty scene.
func (s *SceneService) CreateScene(name string) (*domain.Scene, error) {
	sc := &domain.Scene{
		ID:                  uuid.New().String(),
		Name:                name,
		ViewBackgroundColor: "#ffffff",
		ExportBackground:    true,
		ExportBackgroundKey: "solid",
		ExportScale:         1.0,
	}
	if err := s.scenes.CreateScene(sc); err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(s.dataDir, sc.ID), 0755); err != nil {
		return nil, fmt.Errorf("create scene dir: %w", err)
	}
	return sc, nil
}

// ListScenes returns all scenes.
func (s *SceneService) ListScenes() ([]domain.Scene, error) {
	return s.scenes.ListScenes()
}

// GetScene returns a scene by ID.
func (s *SceneService) GetScene(id string) (*domain.Scene, error) {
	return s.scenes.GetScene(id)
}

// GetSceneState returns the complete state of a scene for canvas
// rendering.
func (s *SceneService) GetSceneState(sceneID string) (*domain.SceneState, error) {
	sc, err := s.scenes.GetScene(sceneID)
	if err != nil {
		return nil, err
	}
	elements, err := s.elements.ListElements(sceneID)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListFiles(sceneID)
	if err != nil {
		return nil, err
	}
	if elements == nil {
		elements = []domain.Element{}
	}
	if files == nil {
		files = []domain.File{}
	}
	return &domain.SceneState{Scene: *sc, Elements: elements, Files: files}, nil
}

// RenameScene updates the scene name.
func (s *SceneService) RenameScene(id, name string) error {
	sc, err := s.scenes.GetScene(id)
	if err != nil {
		return err
	}
	sc.Name = name
	return s.scenes.UpdateScene(sc)
}

// UpdateScene persists scene-level fields directly.
func (s *SceneService) UpdateScene(sc *domain.Scene) error {
	return s.scenes.UpdateScene(sc)
}

// DeleteScene removes a scene with its elements, files and directory.
func (s *SceneService) DeleteScene(_ context.Context, id string) error {
	files, _ := s.files.ListFiles(id)
	for _, f := range files {
		if f.Path != "" {
			_ = os.Remove(f.Path)
		}
	}
	if err := s.files.DeleteFilesByScene(id); err != nil {
		return err
	}
	if err := s.elements.DeleteElementsByScene(id); err != nil {
		return err
	}
	os.RemoveAll(filepath.Join(s.dataDir, id))
	return s.scenes.DeleteScene(id)
}

// CreateElement adds a new element to a scene.
func (s *SceneService) CreateElement(e *domain.Element) (*domain.Element, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if err := s.elements.CreateElement(e); err != nil {
		return nil, fmt.Errorf("create element: %w", err)
	}
	return e, nil
}

// GetElement returns an element by ID.
func (s *SceneService) GetElement(id string) (*domain.Element, error) {
	return s.elements.GetElement(id)
}

// ListElements returns a scene's elements in scene order.
func (s *SceneService) ListElements(sceneID string) ([]domain.Element, error) {
	return s.elements.ListElements(sceneID)
}

// UpdateElement persists element changes.
func (s *SceneService) UpdateElement(e *domain.Element) error {
	return s.elements.UpdateElement(e)
}

// DeleteElement soft-deletes an element so undo can restore it.
func (s *SceneService) DeleteElement(id string) error {
	e, err := s.elements.GetElement(id)
	if err != nil {
		return err
	}
	e.Deleted = true
	return s.elements.UpdateElement(e)
}

// ReplaceSceneElements fully replaces a scene's elements (undo/redo).
func (s *SceneService) ReplaceSceneElements(sceneID string, elements []domain.Element) error {
	return s.elements.ReplaceSceneElements(sceneID, elements)
}

// SaveAttachment stores a base64 data URL as an attachment file on
// disk and records it, returning the new file row.
func (s *SceneService) SaveAttachment(sceneID, dataURL string) (*domain.File, error) {
	mime, data, err := decodeDataURL(dataURL)
	if err != nil {
		return nil, fmt.Errorf("decode attachment: %w", err)
	}

	id := uuid.New().String()
	dir := filepath.Join(s.dataDir, sceneID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("mkdir for attachment: %w", err)
	}

	path := filepath.Join(dir, id+extForMime(mime))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write attachment: %w", err)
	}

	sum := sha256.Sum256(data)
	f := &domain.File{
		ID:       id,
		SceneID:  sceneID,
		Path:     path,
		MimeType: mime,
		Checksum: hex.EncodeToString(sum[:]),
	}
	if err := s.files.CreateFile(f); err != nil {
		return nil, fmt.Errorf("record attachment: %w", err)
	}
	return f, nil
}

// GetAttachmentData reads an attachment and returns it as a base64
// data URL for the frontend.
func (s *SceneService) GetAttachmentData(fileID string) (string, error) {
	f, err := s.files.GetFile(fileID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	return "data:" + f.MimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// LoadSceneImages decodes every attachment of a scene for the
// rasterizer, keyed by file ID. Files that fail to decode are skipped:
// a missing image renders as an empty frame, not a failed export.
func (s *SceneService) LoadSceneImages(sceneID string) (map[string]image.Image, error) {
	files, err := s.files.ListFiles(sceneID)
	if err != nil {
		return nil, err
	}
	images := make(map[string]image.Image, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(strings.NewReader(string(data)))
		if err != nil {
			continue
		}
		images[f.ID] = img
	}
	return images, nil
}

// SnapshotJSON serializes the full scene state, used for embedded
// scenes and backups.
func (s *SceneService) SnapshotJSON(sceneID string) ([]byte, error) {
	state, err := s.GetSceneState(sceneID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

func decodeDataURL(dataURL string) (mime string, data []byte, err error) {
	parts := strings.SplitN(dataURL, ",", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid data URL")
	}
	mime = "image/png"
	if i := strings.Index(parts[0], ":"); i >= 0 {
		if j := strings.Index(parts[0], ";"); j > i {
			mime = parts[0][i+1 : j]
		}
	}
	data, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	return mime, data, nil
}

func extForMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
