package geometry

import (
	"testing"

	"sketchbook/internal/domain"
)

func TestElementBoundsNormalizesNegativeSize(t *testing.T) {
	// Reverse drags produce negative width/height.
	e := domain.Element{X: 100, Y: 100, Width: -40, Height: -20}
	b := ElementBounds(e)
	want := Bounds{MinX: 60, MinY: 80, MaxX: 100, MaxY: 100}
	if b != want {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}
}

func TestElementBoundsPoints(t *testing.T) {
	e := domain.Element{
		X: 10, Y: 20,
		Type:   domain.ElementLine,
		Points: []domain.Point{{X: 0, Y: 0}, {X: 30, Y: -5}, {X: 15, Y: 40}},
	}
	b := ElementBounds(e)
	want := Bounds{MinX: 10, MinY: 15, MaxX: 40, MaxY: 60}
	if b != want {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}
}

func TestFromElements(t *testing.T) {
	elements := []domain.Element{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 50, Y: -20, Width: 10, Height: 10},
	}
	b, ok := FromElements(elements)
	if !ok {
		t.Fatal("expected bounds")
	}
	want := Bounds{MinX: 0, MinY: -20, MaxX: 60, MaxY: 10}
	if b != want {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}
}

func TestFromElementsEmpty(t *testing.T) {
	if _, ok := FromElements(nil); ok {
		t.Error("empty set reported bounds")
	}
}

func TestExpand(t *testing.T) {
	b := Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50}.Expand(10)
	want := Bounds{MinX: -10, MinY: -10, MaxX: 110, MaxY: 60}
	if b != want {
		t.Errorf("expanded = %+v, want %+v", b, want)
	}
	if b.Width() != 120 || b.Height() != 70 {
		t.Errorf("size = %v×%v, want 120×70", b.Width(), b.Height())
	}
}
