package domain

import "time"

// Scene is a single whiteboard canvas. The export_* columns are the
// persisted half of the ambient application state: the export dialog
// reads its initial configuration from them and writes every change
// back, one field per dispatch.
type Scene struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	ViewBackgroundColor string    `json:"viewBackgroundColor"`
	DarkMode            bool      `json:"darkMode"`
	ExportBackground    bool      `json:"exportBackground"`
	ExportBackgroundKey string    `json:"exportBackgroundKey"`
	ExportDarkMode      bool      `json:"exportDarkMode"`
	ExportEmbedScene    bool      `json:"exportEmbedScene"`
	ExportScale         float64   `json:"exportScale"`
	ExportSelectionOnly bool      `json:"exportSelectionOnly"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// SceneState is the complete state of a scene, returned to the
// frontend to render the full canvas.
type SceneState struct {
	Scene    Scene     `json:"scene"`
	Elements []Element `json:"elements"`
	Files    []File    `json:"files"`
}

// AppState is the ambient application state the export pipeline reads
// from: the scene's persisted preferences plus the live selection held
// by the frontend.
type AppState struct {
	SceneID             string   `json:"sceneId"`
	Name                string   `json:"name"`
	ViewBackgroundColor string   `json:"viewBackgroundColor"`
	SelectedElementIDs  []string `json:"selectedElementIds"`
	ExportBackground    bool     `json:"exportBackground"`
	ExportBackgroundKey string   `json:"exportBackgroundKey"`
	ExportDarkMode      bool     `json:"exportDarkMode"`
	ExportEmbedScene    bool     `json:"exportEmbedScene"`
	ExportScale         float64  `json:"exportScale"`
	ExportSelectionOnly bool     `json:"exportSelectionOnly"`
}

type SceneStore interface {
	CreateScene(s *Scene) error
	GetScene(id string) (*Scene, error)
	ListScenes() ([]Scene, error)
	UpdateScene(s *Scene) error
	DeleteScene(id string) error
}
