// Package raster turns scene elements into raster surfaces and vector
// markup. It wraps rasterx for path filling and stroking, the way SVG
// rasterizers built on that scanner do.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"sketchbook/internal/domain"
	"sketchbook/internal/export"
	"sketchbook/internal/geometry"
)

// Options parameterize a single rasterization.
type Options struct {
	// Scale is the requested content scale. It may be reduced when
	// FitWithin is set.
	Scale float64
	// Padding is drawn around the content bounding box, in scene units.
	Padding float64
	// BackgroundEnabled composites a backdrop behind the content.
	BackgroundEnabled bool
	BackgroundKey     export.BackgroundKey
	// BackgroundColor is the scene's view background, hex.
	BackgroundColor string
	// DarkMode inverts the palette.
	DarkMode bool
	// FitWithin, when positive, shrinks the scale so the larger output
	// dimension does not exceed it. Used for preview thumbnails.
	FitWithin int
	// MaxDim overrides the per-side surface ceiling. Zero means
	// export.MaxSurfaceDim.
	MaxDim int
}

// SurfaceSizeError reports a surface whose pixel dimensions exceed the
// platform ceiling.
type SurfaceSizeError struct {
	Width, Height, Limit int
}

func (e *SurfaceSizeError) Error() string {
	return fmt.Sprintf("surface %dx%d exceeds maximum dimension %d", e.Width, e.Height, e.Limit)
}

// bezierCircle is the cubic approximation constant for quarter arcs.
const bezierCircle = 0.5523

var textFont *opentype.Font

func init() {
	// goregular always parses; a nil font just skips text drawing.
	textFont, _ = opentype.Parse(goregular.TTF)
}

// Rasterize draws the elements onto a fresh surface. images maps
// Element.FileID to decoded image payloads; image elements with no
// entry draw as empty frames. An empty element set yields a
// padding-sized blank surface, not an error.
func Rasterize(elements []domain.Element, images map[string]image.Image, opts Options) (*image.RGBA, error) {
	if opts.Scale <= 0 {
		opts.Scale = export.DefaultScale
	}
	maxDim := opts.MaxDim
	if maxDim <= 0 {
		maxDim = export.MaxSurfaceDim
	}

	bounds, ok := geometry.FromElements(elements)
	if !ok {
		bounds = geometry.Bounds{}
	}
	contentW := bounds.Width() + 2*opts.Padding
	contentH := bounds.Height() + 2*opts.Padding

	scale := opts.Scale
	if opts.FitWithin > 0 {
		larger := math.Max(contentW, contentH) * scale
		if larger > float64(opts.FitWithin) {
			scale *= float64(opts.FitWithin) / larger
		}
	}

	outW := int(math.Ceil(contentW * scale))
	outH := int(math.Ceil(contentH * scale))
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	if outW > maxDim || outH > maxDim {
		return nil, &SurfaceSizeError{Width: outW, Height: outH, Limit: maxDim}
	}

	img := image.NewRGBA(image.Rect(0, 0, outW, outH))
	p := newPainter(img, opts.DarkMode)

	if opts.BackgroundEnabled {
		p.fillSurface(p.color(opts.BackgroundColor, color.White))
		p.drawBackdrop(opts.BackgroundKey, outW, outH)
	}

	// Scene → device transform.
	originX := bounds.MinX - opts.Padding
	originY := bounds.MinY - opts.Padding
	tx := func(x, y float64) (float64, float64) {
		return (x - originX) * scale, (y - originY) * scale
	}

	for _, e := range elements {
		if e.Deleted {
			continue
		}
		p.drawElement(e, images, tx, scale)
	}

	return img, nil
}

// painter wraps the rasterx filler and dasher over one surface.
type painter struct {
	img      *image.RGBA
	filler   *rasterx.Filler
	dasher   *rasterx.Dasher
	darkMode bool
}

func newPainter(img *image.RGBA, darkMode bool) *painter {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	scanFill := rasterx.NewScannerGV(w, h, img, img.Bounds())
	scanStroke := rasterx.NewScannerGV(w, h, img, img.Bounds())
	return &painter{
		img:      img,
		filler:   rasterx.NewFiller(w, h, scanFill),
		dasher:   rasterx.NewDasher(w, h, scanStroke),
		darkMode: darkMode,
	}
}

func fixp(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

// color parses a hex color, applies the dark-mode inversion, and falls
// back when the value is empty or malformed.
func (p *painter) color(hex string, fallback color.Color) color.Color {
	c, err := parseHex(hex)
	if err != nil {
		c = fallback
	}
	if p.darkMode {
		c = invert(c)
	}
	return c
}

func parseHex(s string) (color.Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b uint8
	switch len(s) {
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return nil, err
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid hex color %q", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

func invert(c color.Color) color.Color {
	r, g, b, a := c.RGBA()
	return color.NRGBA64{
		R: uint16(0xffff - r),
		G: uint16(0xffff - g),
		B: uint16(0xffff - b),
		A: uint16(a),
	}
}

func (p *painter) fillSurface(c color.Color) {
	b := p.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p.img.Set(x, y, c)
		}
	}
}

func (p *painter) setStroke(width float64) {
	if width <= 0 {
		width = 1
	}
	p.dasher.SetStroke(
		fixed.Int26_6(width*64), fixed.Int26_6(4*64),
		rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap,
		rasterx.Round, nil, 0,
	)
}

func (p *painter) drawElement(e domain.Element, images map[string]image.Image, tx func(float64, float64) (float64, float64), scale float64) {
	opacity := e.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	stroke := rasterx.ApplyOpacity(toRGBA(p.color(e.StrokeColor, color.Black)), opacity)
	fill := rasterx.ApplyOpacity(toRGBA(p.color(e.FillColor, color.Transparent)), opacity)
	hasFill := e.FillColor != "" && e.FillColor != "transparent"

	switch e.Type {
	case domain.ElementText:
		p.drawText(e, tx, scale)
		return
	case domain.ElementImage:
		p.drawImage(e, images[e.FileID], tx, scale)
		return
	case domain.ElementFrame:
		// Frames are organizational; they contribute bounds but no ink.
		return
	}

	// The stroker builds geometry as segments arrive, so width and color
	// must be configured before the path is emitted.
	p.setStroke(e.StrokeWidth * scale)
	p.dasher.SetColor(stroke)

	switch e.Type {
	case domain.ElementRectangle:
		p.pathRect(e, tx)
	case domain.ElementEllipse:
		p.pathEllipse(e, tx)
	case domain.ElementDiamond:
		p.pathDiamond(e, tx)
	case domain.ElementLine, domain.ElementArrow, domain.ElementFreedraw:
		p.pathPolyline(e, tx)
	default:
		return
	}

	if hasFill {
		p.filler.SetColor(fill)
		p.filler.Draw()
	}
	p.filler.Clear()

	p.dasher.Draw()
	p.dasher.Clear()

	if e.Type == domain.ElementArrow && len(e.Points) >= 2 {
		p.drawArrowHead(e, tx, scale, stroke)
	}
}

func toRGBA(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

// path emits to both the filler and the dasher so one walk serves fill
// and stroke.
func (p *painter) start(x, y float64) {
	pt := fixp(x, y)
	p.filler.Start(pt)
	p.dasher.Start(pt)
}

func (p *painter) line(x, y float64) {
	pt := fixp(x, y)
	p.filler.Line(pt)
	p.dasher.Line(pt)
}

func (p *painter) cube(c1x, c1y, c2x, c2y, x, y float64) {
	p.filler.CubeBezier(fixp(c1x, c1y), fixp(c2x, c2y), fixp(x, y))
	p.dasher.CubeBezier(fixp(c1x, c1y), fixp(c2x, c2y), fixp(x, y))
}

func (p *painter) stop(closeLoop bool) {
	p.filler.Stop(closeLoop)
	p.dasher.Stop(closeLoop)
}

func (p *painter) pathRect(e domain.Element, tx func(float64, float64) (float64, float64)) {
	x1, y1 := tx(e.X, e.Y)
	x2, y2 := tx(e.X+e.Width, e.Y+e.Height)
	p.start(x1, y1)
	p.line(x2, y1)
	p.line(x2, y2)
	p.line(x1, y2)
	p.stop(true)
}

func (p *painter) pathEllipse(e domain.Element, tx func(float64, float64) (float64, float64)) {
	cx, cy := tx(e.X+e.Width/2, e.Y+e.Height/2)
	x2, y2 := tx(e.X+e.Width, e.Y+e.Height)
	rx := x2 - cx
	ry := y2 - cy
	kx := rx * bezierCircle
	ky := ry * bezierCircle

	p.start(cx+rx, cy)
	p.cube(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.cube(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.cube(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.cube(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.stop(true)
}

func (p *painter) pathDiamond(e domain.Element, tx func(float64, float64) (float64, float64)) {
	top := [2]float64{e.X + e.Width/2, e.Y}
	right := [2]float64{e.X + e.Width, e.Y + e.Height/2}
	bottom := [2]float64{e.X + e.Width/2, e.Y + e.Height}
	left := [2]float64{e.X, e.Y + e.Height/2}
	x, y := tx(top[0], top[1])
	p.start(x, y)
	x, y = tx(right[0], right[1])
	p.line(x, y)
	x, y = tx(bottom[0], bottom[1])
	p.line(x, y)
	x, y = tx(left[0], left[1])
	p.line(x, y)
	p.stop(true)
}

func (p *painter) pathPolyline(e domain.Element, tx func(float64, float64) (float64, float64)) {
	if len(e.Points) == 0 {
		return
	}
	x, y := tx(e.X+e.Points[0].X, e.Y+e.Points[0].Y)
	p.dasher.Start(fixp(x, y))
	for _, pt := range e.Points[1:] {
		x, y = tx(e.X+pt.X, e.Y+pt.Y)
		p.dasher.Line(fixp(x, y))
	}
	p.dasher.Stop(false)
}

func (p *painter) drawArrowHead(e domain.Element, tx func(float64, float64) (float64, float64), scale float64, c color.Color) {
	n := len(e.Points)
	tipX, tipY := tx(e.X+e.Points[n-1].X, e.Y+e.Points[n-1].Y)
	prevX, prevY := tx(e.X+e.Points[n-2].X, e.Y+e.Points[n-2].Y)
	angle := math.Atan2(tipY-prevY, tipX-prevX)

	size := 12 * scale
	if w := e.StrokeWidth * scale; w > 1 {
		size += 2 * w
	}
	const spread = math.Pi / 7

	p.setStroke(e.StrokeWidth * scale)
	p.dasher.SetColor(c)
	for _, a := range []float64{angle - spread, angle + spread} {
		p.dasher.Start(fixp(tipX, tipY))
		p.dasher.Line(fixp(tipX-size*math.Cos(a), tipY-size*math.Sin(a)))
		p.dasher.Stop(false)
	}
	p.dasher.Draw()
	p.dasher.Clear()
}

func (p *painter) drawText(e domain.Element, tx func(float64, float64) (float64, float64), scale float64) {
	if textFont == nil || e.Text == "" {
		return
	}
	size := e.FontSize
	if size <= 0 {
		size = 16
	}
	size *= scale
	face, err := opentype.NewFace(textFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return
	}
	defer face.Close()

	d := &font.Drawer{
		Dst:  p.img,
		Src:  image.NewUniform(p.color(e.StrokeColor, color.Black)),
		Face: face,
	}
	x, y := tx(e.X, e.Y)
	lineHeight := size * 1.25
	for i, line := range strings.Split(e.Text, "\n") {
		d.Dot = fixp(x, y+size+float64(i)*lineHeight)
		d.DrawString(line)
	}
}

func (p *painter) drawImage(e domain.Element, src image.Image, tx func(float64, float64) (float64, float64), scale float64) {
	if src == nil {
		return
	}
	x1, y1 := tx(e.X, e.Y)
	x2, y2 := tx(e.X+e.Width, e.Y+e.Height)
	rect := image.Rect(int(math.Round(x1)), int(math.Round(y1)), int(math.Round(x2)), int(math.Round(y2)))
	xdraw.ApproxBiLinear.Scale(p.img, rect, src, src.Bounds(), xdraw.Over, nil)
}

// drawBackdrop paints the decorative pattern for non-solid background
// keys. Solid backgrounds are the plain fill alone.
func (p *painter) drawBackdrop(key export.BackgroundKey, w, h int) {
	if !key.Decorative() {
		return
	}
	accent := color.NRGBA{R: 120, G: 120, B: 200, A: 40}
	if p.darkMode {
		accent = color.NRGBA{R: 200, G: 200, B: 255, A: 40}
	}

	switch key {
	case export.BackgroundBubbles:
		// Deterministic scatter so repeated renders of the same surface
		// are identical.
		seed := uint64(w*31 + h*17)
		for i := 0; i < 24; i++ {
			seed = seed*6364136223846793005 + 1442695040888963407
			cx := float64(seed % uint64(w+1))
			seed = seed*6364136223846793005 + 1442695040888963407
			cy := float64(seed % uint64(h+1))
			seed = seed*6364136223846793005 + 1442695040888963407
			r := 8 + float64(seed%48)
			p.fillCircle(cx, cy, r, accent)
		}
	case export.BackgroundMesh:
		step := 48.0
		p.setStroke(1)
		p.dasher.SetColor(accent)
		for x := -float64(h); x < float64(w); x += step {
			p.dasher.Start(fixp(x, 0))
			p.dasher.Line(fixp(x+float64(h), float64(h)))
			p.dasher.Stop(false)
		}
		p.dasher.Draw()
		p.dasher.Clear()
	case export.BackgroundGrid:
		step := 32.0
		p.setStroke(1)
		p.dasher.SetColor(accent)
		for x := 0.0; x <= float64(w); x += step {
			p.dasher.Start(fixp(x, 0))
			p.dasher.Line(fixp(x, float64(h)))
			p.dasher.Stop(false)
		}
		for y := 0.0; y <= float64(h); y += step {
			p.dasher.Start(fixp(0, y))
			p.dasher.Line(fixp(float64(w), y))
			p.dasher.Stop(false)
		}
		p.dasher.Draw()
		p.dasher.Clear()
	}
}

func (p *painter) fillCircle(cx, cy, r float64, c color.Color) {
	k := r * bezierCircle
	p.filler.Start(fixp(cx+r, cy))
	p.filler.CubeBezier(fixp(cx+r, cy+k), fixp(cx+k, cy+r), fixp(cx, cy+r))
	p.filler.CubeBezier(fixp(cx-k, cy+r), fixp(cx-r, cy+k), fixp(cx-r, cy))
	p.filler.CubeBezier(fixp(cx-r, cy-k), fixp(cx-k, cy-r), fixp(cx, cy-r))
	p.filler.CubeBezier(fixp(cx+k, cy-r), fixp(cx+r, cy-k), fixp(cx+r, cy))
	p.filler.Stop(true)
	p.filler.SetColor(c)
	p.filler.Draw()
	p.filler.Clear()
}
