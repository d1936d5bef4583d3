package raster

import (
	"encoding/base64"
	"strings"
	"testing"

	"sketchbook/internal/domain"
	"sketchbook/internal/export"
)

func TestWriteSVGBasic(t *testing.T) {
	elements := []domain.Element{
		{ID: "r", Type: domain.ElementRectangle, X: 0, Y: 0, Width: 100, Height: 50, StrokeColor: "#1e1e1e", FillColor: "#3b82f6"},
	}
	out, err := WriteSVG(elements, Options{Scale: 1, Padding: 10}, nil)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(out)

	if !strings.Contains(svg, `width="120" height="70"`) {
		t.Errorf("missing padded dimensions: %s", svg)
	}
	if !strings.Contains(svg, `viewBox="-10 -10 120 70"`) {
		t.Errorf("missing viewBox: %s", svg)
	}
	if !strings.Contains(svg, `<rect x="0" y="0" width="100" height="50" fill="#3b82f6"`) {
		t.Errorf("missing rect: %s", svg)
	}
}

func TestWriteSVGScaleMultipliesDimensions(t *testing.T) {
	elements := []domain.Element{
		{ID: "r", Type: domain.ElementRectangle, Width: 100, Height: 50},
	}
	out, err := WriteSVG(elements, Options{Scale: 2, Padding: 10}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `width="240" height="140"`) {
		t.Errorf("missing scaled dimensions: %s", out)
	}
}

func TestWriteSVGEmbedsScene(t *testing.T) {
	scene := []byte(`{"scene":{"id":"abc"}}`)
	out, err := WriteSVG(nil, Options{Scale: 1}, scene)
	if err != nil {
		t.Fatal(err)
	}
	want := "<metadata id=\"sketchbook:scene\">" + base64.StdEncoding.EncodeToString(scene) + "</metadata>"
	if !strings.Contains(string(out), want) {
		t.Errorf("missing metadata element: %s", out)
	}
}

func TestWriteSVGBackground(t *testing.T) {
	out, err := WriteSVG(nil, Options{
		Scale:             1,
		BackgroundEnabled: true,
		BackgroundColor:   "#fafafa",
		BackgroundKey:     export.BackgroundSolid,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `fill="#fafafa"`) {
		t.Errorf("missing background rect: %s", out)
	}
}

func TestWriteSVGDecorativeBackgroundPattern(t *testing.T) {
	for _, key := range []export.BackgroundKey{export.BackgroundBubbles, export.BackgroundMesh, export.BackgroundGrid} {
		out, err := WriteSVG(nil, Options{
			Scale:             1,
			BackgroundEnabled: true,
			BackgroundColor:   "#ffffff",
			BackgroundKey:     key,
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		svg := string(out)
		id := "backdrop-" + string(key)
		if !strings.Contains(svg, `<pattern id="`+id+`"`) {
			t.Errorf("%s: missing pattern definition: %s", key, svg)
		}
		if !strings.Contains(svg, `fill="url(#`+id+`)"`) {
			t.Errorf("%s: missing pattern-filled rect: %s", key, svg)
		}
	}

	// Solid stays a plain rect.
	out, err := WriteSVG(nil, Options{
		Scale:             1,
		BackgroundEnabled: true,
		BackgroundColor:   "#ffffff",
		BackgroundKey:     export.BackgroundSolid,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "<pattern") {
		t.Errorf("solid background emitted a pattern: %s", out)
	}
}

func TestWriteSVGEscapesText(t *testing.T) {
	elements := []domain.Element{
		{ID: "t", Type: domain.ElementText, Text: `<b> & "quotes"`, FontSize: 16},
	}
	out, err := WriteSVG(elements, Options{Scale: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(out)
	if strings.Contains(svg, "<b>") {
		t.Errorf("unescaped markup in text: %s", svg)
	}
	if !strings.Contains(svg, "&lt;b&gt;") {
		t.Errorf("missing escaped text: %s", svg)
	}
}

func TestWriteSVGArrowDefinesMarker(t *testing.T) {
	elements := []domain.Element{
		{ID: "a", Type: domain.ElementArrow, Points: []domain.Point{{X: 0, Y: 0}, {X: 50, Y: 0}}},
	}
	out, err := WriteSVG(elements, Options{Scale: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(out)
	if strings.Contains(svg, "url(#arrowhead)") && !strings.Contains(svg, `<marker id="arrowhead"`) {
		t.Errorf("arrow references undefined marker: %s", svg)
	}
}

func TestWriteSVGDarkModeInvertsColors(t *testing.T) {
	elements := []domain.Element{
		{ID: "r", Type: domain.ElementRectangle, Width: 10, Height: 10, StrokeColor: "#000000"},
	}
	out, err := WriteSVG(elements, Options{Scale: 1, DarkMode: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `stroke="#ffffff"`) {
		t.Errorf("stroke not inverted: %s", out)
	}
}
