package storage

import (
	"fmt"
	"time"

	"sketchbook/internal/domain"
)

// SceneStore implements domain.SceneStore using SQLite.
type SceneStore struct {
	db *DB
}

func NewSceneStore(db *DB) *SceneStore {
	return &SceneStore{db: db}
}

const sceneColumns = `id, name, view_background_color, dark_mode,
	export_background, export_background_key, export_dark_mode,
	export_embed_scene, export_scale, export_selection_only,
	created_at, updated_at`

func (s *SceneStore) CreateScene(sc *domain.Scene) error {
	now := time.Now()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	_, err := s.db.Conn().Exec(
		`INSERT INTO scenes (`+sceneColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, sc.ViewBackgroundColor, sc.DarkMode,
		sc.ExportBackground, sc.ExportBackgroundKey, sc.ExportDarkMode,
		sc.ExportEmbedScene, sc.ExportScale, sc.ExportSelectionOnly,
		sc.CreatedAt, sc.UpdatedAt,
	)
	return err
}

func (s *SceneStore) scanScene(row interface{ Scan(...any) error }) (*domain.Scene, error) {
	sc := &domain.Scene{}
	err := row.Scan(
		&sc.ID, &sc.Name, &sc.ViewBackgroundColor, &sc.DarkMode,
		&sc.ExportBackground, &sc.ExportBackgroundKey, &sc.ExportDarkMode,
		&sc.ExportEmbedScene, &sc.ExportScale, &sc.ExportSelectionOnly,
		&sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *SceneStore) GetScene(id string) (*domain.Scene, error) {
	sc, err := s.scanScene(s.db.Conn().QueryRow(
		`SELECT `+sceneColumns+` FROM scenes WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return sc, nil
}

func (s *SceneStore) ListScenes() ([]domain.Scene, error) {
	rows, err := s.db.Conn().Query(`SELECT ` + sceneColumns + ` FROM scenes ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenes []domain.Scene
	for rows.Next() {
		sc, err := s.scanScene(rows)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, *sc)
	}
	return scenes, rows.Err()
}

func (s *SceneStore) UpdateScene(sc *domain.Scene) error {
	sc.UpdatedAt = time.Now()
	_, err := s.db.Conn().Exec(
		`UPDATE scenes SET name = ?, view_background_color = ?, dark_mode = ?,
			export_background = ?, export_background_key = ?, export_dark_mode = ?,
			export_embed_scene = ?, export_scale = ?, export_selection_only = ?,
			updated_at = ? WHERE id = ?`,
		sc.Name, sc.ViewBackgroundColor, sc.DarkMode,
		sc.ExportBackground, sc.ExportBackgroundKey, sc.ExportDarkMode,
		sc.ExportEmbedScene, sc.ExportScale, sc.ExportSelectionOnly,
		sc.UpdatedAt, sc.ID,
	)
	return err
}

func (s *SceneStore) DeleteScene(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM scenes WHERE id = ?`, id)
	return err
}
