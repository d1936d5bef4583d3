// Package geometry computes bounding boxes over scene elements.
package geometry

import (
	"math"

	"sketchbook/internal/domain"
)

// Bounds is an axis-aligned bounding box in scene coordinates.
// Valid bounds satisfy MinX <= MaxX and MinY <= MaxY.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Expand grows the box by pad on all four sides.
func (b Bounds) Expand(pad float64) Bounds {
	return Bounds{MinX: b.MinX - pad, MinY: b.MinY - pad, MaxX: b.MaxX + pad, MaxY: b.MaxY + pad}
}

// Union returns the smallest box containing both boxes.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// ElementBounds returns the bounding box of a single element.
// Point-based elements (line, arrow, freedraw) are bounded by their
// points relative to the element origin; everything else by x/y/w/h,
// normalized so negative widths from reverse drags still yield a
// valid box.
func ElementBounds(e domain.Element) Bounds {
	if len(e.Points) > 0 {
		b := Bounds{MinX: e.X + e.Points[0].X, MinY: e.Y + e.Points[0].Y, MaxX: e.X + e.Points[0].X, MaxY: e.Y + e.Points[0].Y}
		for _, p := range e.Points[1:] {
			b.MinX = math.Min(b.MinX, e.X+p.X)
			b.MinY = math.Min(b.MinY, e.Y+p.Y)
			b.MaxX = math.Max(b.MaxX, e.X+p.X)
			b.MaxY = math.Max(b.MaxY, e.Y+p.Y)
		}
		return b
	}
	x1, x2 := e.X, e.X+e.Width
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	y1, y2 := e.Y, e.Y+e.Height
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Bounds{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// FromElements returns the common bounding box of the given elements.
// The second return value is false when the set is empty: an empty set
// has no bounds, which is not an error.
func FromElements(elements []domain.Element) (Bounds, bool) {
	if len(elements) == 0 {
		return Bounds{}, false
	}
	b := ElementBounds(elements[0])
	for _, e := range elements[1:] {
		b = b.Union(ElementBounds(e))
	}
	return b, true
}
