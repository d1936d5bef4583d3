package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"sketchbook/internal/domain"
)

// ElementStore implements domain.ElementStore using SQLite. Point
// lists are serialized into a JSON column; everything else maps to a
// plain column.
type ElementStore struct {
	db *DB
}

func NewElementStore(db *DB) *ElementStore {
	return &ElementStore{db: db}
}

const elementColumns = `id, scene_id, type, x, y, width, height, angle,
	stroke_color, fill_color, stroke_width, opacity, points_json, text,
	font_size, container_id, frame_id, file_id, locked, deleted,
	sort_order, created_at, updated_at`

func marshalPoints(points []domain.Point) string {
	if len(points) == 0 {
		return "[]"
	}
	data, err := json.Marshal(points)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func (s *ElementStore) CreateElement(e *domain.Element) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := s.db.Conn().Exec(
		`INSERT INTO elements (`+elementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SceneID, e.Type, e.X, e.Y, e.Width, e.Height, e.Angle,
		e.StrokeColor, e.FillColor, e.StrokeWidth, e.Opacity, marshalPoints(e.Points), e.Text,
		e.FontSize, e.ContainerID, e.FrameID, e.FileID, e.Locked, e.Deleted,
		e.SortOrder, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func scanElement(row interface{ Scan(...any) error }) (*domain.Element, error) {
	e := &domain.Element{}
	var pointsJSON string
	err := row.Scan(
		&e.ID, &e.SceneID, &e.Type, &e.X, &e.Y, &e.Width, &e.Height, &e.Angle,
		&e.StrokeColor, &e.FillColor, &e.StrokeWidth, &e.Opacity, &pointsJSON, &e.Text,
		&e.FontSize, &e.ContainerID, &e.FrameID, &e.FileID, &e.Locked, &e.Deleted,
		&e.SortOrder, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pointsJSON != "" && pointsJSON != "[]" {
		if err := json.Unmarshal([]byte(pointsJSON), &e.Points); err != nil {
			return nil, fmt.Errorf("decode element points: %w", err)
		}
	}
	return e, nil
}

func (s *ElementStore) GetElement(id string) (*domain.Element, error) {
	e, err := scanElement(s.db.Conn().QueryRow(
		`SELECT `+elementColumns+` FROM elements WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("get element: %w", err)
	}
	return e, nil
}

func (s *ElementStore) ListElements(sceneID string) ([]domain.Element, error) {
	rows, err := s.db.Conn().Query(
		`SELECT `+elementColumns+` FROM elements WHERE scene_id = ? ORDER BY sort_order ASC, created_at ASC`,
		sceneID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elements []domain.Element
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		elements = append(elements, *e)
	}
	return elements, rows.Err()
}

func (s *ElementStore) UpdateElement(e *domain.Element) error {
	e.UpdatedAt = time.Now()
	_, err := s.db.Conn().Exec(
		`UPDATE elements SET type = ?, x = ?, y = ?, width = ?, height = ?, angle = ?,
			stroke_color = ?, fill_color = ?, stroke_width = ?, opacity = ?, points_json = ?,
			text = ?, font_size = ?, container_id = ?, frame_id = ?, file_id = ?,
			locked = ?, deleted = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		e.Type, e.X, e.Y, e.Width, e.Height, e.Angle,
		e.StrokeColor, e.FillColor, e.StrokeWidth, e.Opacity, marshalPoints(e.Points),
		e.Text, e.FontSize, e.ContainerID, e.FrameID, e.FileID,
		e.Locked, e.Deleted, e.SortOrder, e.UpdatedAt, e.ID,
	)
	return err
}

func (s *ElementStore) DeleteElement(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM elements WHERE id = ?`, id)
	return err
}

func (s *ElementStore) DeleteElementsByScene(sceneID string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM elements WHERE scene_id = ?`, sceneID)
	return err
}

// ReplaceSceneElements fully replaces all elements of a scene (used by
// undo/redo restore).
func (s *ElementStore) ReplaceSceneElements(sceneID string, elements []domain.Element) error {
	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM elements WHERE scene_id = ?`, sceneID); err != nil {
		return fmt.Errorf("clear scene elements: %w", err)
	}
	now := time.Now()
	for i := range elements {
		e := &elements[i]
		e.SceneID = sceneID
		e.SortOrder = i
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		if _, err := tx.Exec(
			`INSERT INTO elements (`+elementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.SceneID, e.Type, e.X, e.Y, e.Width, e.Height, e.Angle,
			e.StrokeColor, e.FillColor, e.StrokeWidth, e.Opacity, marshalPoints(e.Points), e.Text,
			e.FontSize, e.ContainerID, e.FrameID, e.FileID, e.Locked, e.Deleted,
			e.SortOrder, e.CreatedAt, e.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert element %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}
