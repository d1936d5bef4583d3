package raster

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
)

func TestEncodePNGRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 8))
	data, err := EncodePNG(img, nil)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 10 || decoded.Bounds().Dy() != 8 {
		t.Errorf("decoded size = %v", decoded.Bounds())
	}
	if _, ok := ExtractScene(data); ok {
		t.Error("found scene in plain png")
	}
}

func TestEncodePNGEmbedsScene(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	scene := []byte(`{"scene":{"id":"abc"},"elements":[]}`)

	data, err := EncodePNG(img, scene)
	if err != nil {
		t.Fatal(err)
	}

	// The file must stay a valid PNG with the chunk spliced in.
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("decode with embedded scene: %v", err)
	}

	got, ok := ExtractScene(data)
	if !ok {
		t.Fatal("embedded scene not found")
	}
	if !bytes.Equal(got, scene) {
		t.Errorf("extracted = %s, want %s", got, scene)
	}
}

func TestEncodePNGRejectsOversizedSurface(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16385, 1))
	_, err := EncodePNG(img, nil)
	var sizeErr *SurfaceSizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("err = %v, want SurfaceSizeError", err)
	}
}

func TestExtractSceneGarbage(t *testing.T) {
	if _, ok := ExtractScene([]byte("not a png at all")); ok {
		t.Error("extracted scene from garbage")
	}
}
