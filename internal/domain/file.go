package domain

import "time"

// File is an image payload attached to a scene, referenced by image
// elements through Element.FileID. The binary lives on disk under the
// data directory; the row records where and what it is.
type File struct {
	ID        string    `json:"id"`
	SceneID   string    `json:"sceneId"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mimeType"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type FileStore interface {
	CreateFile(f *File) error
	GetFile(id string) (*File, error)
	ListFiles(sceneID string) ([]File, error)
	DeleteFile(id string) error
	DeleteFilesByScene(sceneID string) error
}
