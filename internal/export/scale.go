package export

import (
	"math"

	"sketchbook/internal/geometry"
)

// scaleEpsilon keeps the two-decimal floor from flickering between
// neighbouring values when the raw ratio lands on a boundary.
const scaleEpsilon = 1e-9

// ScaleToFit returns the largest scale that fits content of the given
// size into the viewport, floored to two decimals so repeated
// recomputation over the same inputs cannot jitter at sub-pixel
// precision. Zero-size content has no meaningful ratio and yields the
// default scale.
func ScaleToFit(contentW, contentH, viewportW, viewportH float64) float64 {
	if contentW <= 0 || contentH <= 0 {
		return DefaultScale
	}
	ratio := math.Min(viewportW/contentW, viewportH/contentH)
	return math.Floor((ratio+scaleEpsilon)*100) / 100
}

// RefitBaseScale computes the base scale for the given scoped content.
// The auto-fit only applies when there is content and a decorative
// background is active; decorative backgrounds carry a fixed padding,
// and without up-scaling a small selection would sit in a
// disproportionate sea of it. A fit at or below 1 means the content
// already fills the viewport, so the base resets to the default and
// the plain multiplier choices apply.
func RefitBaseScale(cfg Config, bounds geometry.Bounds, elementCount int, viewportW, viewportH float64) float64 {
	if elementCount == 0 || !cfg.DecorativeActive() {
		return DefaultScale
	}
	padded := bounds.Expand(DecorativePadding)
	scale := ScaleToFit(padded.Width(), padded.Height(), viewportW, viewportH)
	if scale <= DefaultScale {
		return DefaultScale
	}
	return scale
}
