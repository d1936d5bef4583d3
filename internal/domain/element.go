package domain

import "time"

type ElementType string

const (
	ElementRectangle ElementType = "rectangle"
	ElementEllipse   ElementType = "ellipse"
	ElementDiamond   ElementType = "diamond"
	ElementLine      ElementType = "line"
	ElementArrow     ElementType = "arrow"
	ElementFreedraw  ElementType = "freedraw"
	ElementText      ElementType = "text"
	ElementImage     ElementType = "image"
	ElementFrame     ElementType = "frame"
)

// Point is a coordinate relative to an element's origin, used by
// line, arrow and freedraw elements.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is a single drawing primitive on a scene canvas.
// Elements are scene-ordered; the painter draws them first to last.
type Element struct {
	ID          string      `json:"id"`
	SceneID     string      `json:"sceneId"`
	Type        ElementType `json:"type"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Angle       float64     `json:"angle"`
	StrokeColor string      `json:"strokeColor"`
	FillColor   string      `json:"fillColor"`
	StrokeWidth float64     `json:"strokeWidth"`
	Opacity     float64     `json:"opacity"`
	Points      []Point     `json:"points,omitempty"`
	Text        string      `json:"text,omitempty"`
	FontSize    float64     `json:"fontSize,omitempty"`
	ContainerID string      `json:"containerId,omitempty"` // text bound to a shape
	FrameID     string      `json:"frameId,omitempty"`      // membership in a frame
	FileID      string      `json:"fileId,omitempty"`       // image payload reference
	Locked      bool        `json:"locked"`
	Deleted     bool        `json:"deleted"`
	SortOrder   int         `json:"sortOrder"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// IsBoundText reports whether the element is a text label attached to
// a container shape.
func (e *Element) IsBoundText() bool {
	return e.Type == ElementText && e.ContainerID != ""
}

type ElementStore interface {
	CreateElement(e *Element) error
	GetElement(id string) (*Element, error)
	ListElements(sceneID string) ([]Element, error)
	UpdateElement(e *Element) error
	DeleteElement(id string) error
	DeleteElementsByScene(sceneID string) error
	ReplaceSceneElements(sceneID string, elements []Element) error
}
