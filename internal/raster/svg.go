package raster

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"math"

	"sketchbook/internal/domain"
	"sketchbook/internal/export"
	"sketchbook/internal/geometry"
)

// WriteSVG renders the elements as standalone SVG markup. The same
// options drive it as the rasterizer, except FitWithin and MaxDim do
// not apply: vector output has no pixel ceiling. A non-nil sceneJSON
// is embedded in a metadata element.
func WriteSVG(elements []domain.Element, opts Options, sceneJSON []byte) ([]byte, error) {
	if opts.Scale <= 0 {
		opts.Scale = export.DefaultScale
	}
	bounds, ok := geometry.FromElements(elements)
	if !ok {
		bounds = geometry.Bounds{}
	}
	contentW := bounds.Width() + 2*opts.Padding
	contentH := bounds.Height() + 2*opts.Padding
	outW := math.Ceil(contentW * opts.Scale)
	outH := math.Ceil(contentH * opts.Scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="%g %g %g %g">`+"\n",
		outW, outH, bounds.MinX-opts.Padding, bounds.MinY-opts.Padding, contentW, contentH)

	if sceneJSON != nil {
		fmt.Fprintf(&buf, "  <metadata id=%q>%s</metadata>\n", sceneKeyword,
			base64.StdEncoding.EncodeToString(sceneJSON))
	}

	for _, e := range elements {
		if e.Type == domain.ElementArrow && !e.Deleted {
			buf.WriteString(`  <defs><marker id="arrowhead" markerWidth="8" markerHeight="8" refX="6" refY="3" orient="auto"><path d="M0,0 L6,3 L0,6 z"/></marker></defs>` + "\n")
			break
		}
	}

	if opts.BackgroundEnabled {
		bg := opts.BackgroundColor
		if bg == "" {
			bg = "#ffffff"
		}
		if opts.DarkMode {
			bg = invertHex(bg)
		}
		bx := bounds.MinX - opts.Padding
		by := bounds.MinY - opts.Padding
		fmt.Fprintf(&buf, `  <rect x="%g" y="%g" width="%g" height="%g" fill=%q/>`+"\n",
			bx, by, contentW, contentH, bg)
		writeSVGBackdrop(&buf, opts.BackgroundKey, bx, by, contentW, contentH, opts.DarkMode)
	}

	for _, e := range elements {
		if e.Deleted {
			continue
		}
		writeSVGElement(&buf, e, opts.DarkMode)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// writeSVGBackdrop emits a pattern definition and overlay rect matching
// the raster backdrop for non-solid background keys. The bubbles key
// tiles a fixed arrangement rather than reproducing the raster scatter.
func writeSVGBackdrop(buf *bytes.Buffer, key export.BackgroundKey, x, y, w, h float64, darkMode bool) {
	if !key.Decorative() {
		return
	}
	accent := "rgb(120,120,200)"
	if darkMode {
		accent = "rgb(200,200,255)"
	}

	id := "backdrop-" + string(key)
	fmt.Fprintf(buf, `  <defs><pattern id=%q patternUnits="userSpaceOnUse" `, id)
	switch key {
	case export.BackgroundBubbles:
		fmt.Fprintf(buf, `width="96" height="96">`)
		fmt.Fprintf(buf, `<g fill=%q fill-opacity="0.16">`, accent)
		fmt.Fprintf(buf, `<circle cx="20" cy="24" r="14"/><circle cx="70" cy="12" r="8"/><circle cx="54" cy="62" r="22"/><circle cx="10" cy="80" r="10"/>`)
		buf.WriteString(`</g>`)
	case export.BackgroundMesh:
		fmt.Fprintf(buf, `width="48" height="48">`)
		fmt.Fprintf(buf, `<path d="M0,0 L48,48 M-6,42 L6,54 M42,-6 L54,6" stroke=%q stroke-opacity="0.16" stroke-width="1" fill="none"/>`, accent)
	case export.BackgroundGrid:
		fmt.Fprintf(buf, `width="32" height="32">`)
		fmt.Fprintf(buf, `<path d="M32,0 L0,0 L0,32" stroke=%q stroke-opacity="0.16" stroke-width="1" fill="none"/>`, accent)
	}
	buf.WriteString(`</pattern></defs>` + "\n")
	fmt.Fprintf(buf, `  <rect x="%g" y="%g" width="%g" height="%g" fill="url(#%s)"/>`+"\n",
		x, y, w, h, id)
}

func writeSVGElement(buf *bytes.Buffer, e domain.Element, darkMode bool) {
	stroke := svgColor(e.StrokeColor, "#000000", darkMode)
	fill := svgColor(e.FillColor, "none", darkMode)
	width := e.StrokeWidth
	if width <= 0 {
		width = 1
	}

	switch e.Type {
	case domain.ElementRectangle:
		fmt.Fprintf(buf, `  <rect x="%g" y="%g" width="%g" height="%g" fill=%q stroke=%q stroke-width="%g"/>`+"\n",
			e.X, e.Y, e.Width, e.Height, fill, stroke, width)
	case domain.ElementEllipse:
		fmt.Fprintf(buf, `  <ellipse cx="%g" cy="%g" rx="%g" ry="%g" fill=%q stroke=%q stroke-width="%g"/>`+"\n",
			e.X+e.Width/2, e.Y+e.Height/2, e.Width/2, e.Height/2, fill, stroke, width)
	case domain.ElementDiamond:
		fmt.Fprintf(buf, `  <polygon points="%g,%g %g,%g %g,%g %g,%g" fill=%q stroke=%q stroke-width="%g"/>`+"\n",
			e.X+e.Width/2, e.Y, e.X+e.Width, e.Y+e.Height/2, e.X+e.Width/2, e.Y+e.Height, e.X, e.Y+e.Height/2,
			fill, stroke, width)
	case domain.ElementLine, domain.ElementArrow, domain.ElementFreedraw:
		if len(e.Points) == 0 {
			return
		}
		var pts bytes.Buffer
		for i, p := range e.Points {
			if i > 0 {
				pts.WriteByte(' ')
			}
			fmt.Fprintf(&pts, "%g,%g", e.X+p.X, e.Y+p.Y)
		}
		marker := ""
		if e.Type == domain.ElementArrow {
			marker = ` marker-end="url(#arrowhead)"`
		}
		fmt.Fprintf(buf, `  <polyline points=%q fill="none" stroke=%q stroke-width="%g" stroke-linecap="round"%s/>`+"\n",
			pts.String(), stroke, width, marker)
	case domain.ElementText:
		size := e.FontSize
		if size <= 0 {
			size = 16
		}
		var escaped bytes.Buffer
		xml.EscapeText(&escaped, []byte(e.Text))
		fmt.Fprintf(buf, `  <text x="%g" y="%g" font-size="%g" fill=%q>%s</text>`+"\n",
			e.X, e.Y+size, size, stroke, escaped.String())
	}
}

func svgColor(hex, fallback string, darkMode bool) string {
	if hex == "" || hex == "transparent" {
		return fallback
	}
	if darkMode {
		return invertHex(hex)
	}
	return hex
}

func invertHex(hex string) string {
	c, err := parseHex(hex)
	if err != nil {
		return hex
	}
	r, g, b, _ := invert(c).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
