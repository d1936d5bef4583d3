package storage

import (
	"fmt"
	"time"

	"sketchbook/internal/domain"
)

// FileStore implements domain.FileStore using SQLite. Rows reference
// attachment binaries on disk; the bytes themselves never enter the
// database.
type FileStore struct {
	db *DB
}

func NewFileStore(db *DB) *FileStore {
	return &FileStore{db: db}
}

func (s *FileStore) CreateFile(f *domain.File) error {
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	_, err := s.db.Conn().Exec(
		`INSERT INTO files (id, scene_id, path, mime_type, checksum, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.SceneID, f.Path, f.MimeType, f.Checksum, f.CreatedAt, f.UpdatedAt,
	)
	return err
}

func (s *FileStore) GetFile(id string) (*domain.File, error) {
	f := &domain.File{}
	err := s.db.Conn().QueryRow(
		`SELECT id, scene_id, path, mime_type, checksum, created_at, updated_at FROM files WHERE id = ?`, id,
	).Scan(&f.ID, &f.SceneID, &f.Path, &f.MimeType, &f.Checksum, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return f, nil
}

func (s *FileStore) ListFiles(sceneID string) ([]domain.File, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, scene_id, path, mime_type, checksum, created_at, updated_at FROM files WHERE scene_id = ? ORDER BY created_at ASC`,
		sceneID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []domain.File
	for rows.Next() {
		var f domain.File
		if err := rows.Scan(&f.ID, &f.SceneID, &f.Path, &f.MimeType, &f.Checksum, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *FileStore) DeleteFile(id string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM files WHERE id = ?`, id)
	return err
}

func (s *FileStore) DeleteFilesByScene(sceneID string) error {
	_, err := s.db.Conn().Exec(`DELETE FROM files WHERE scene_id = ?`, sceneID)
	return err
}
