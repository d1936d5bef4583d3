package export

import (
	"testing"

	"sketchbook/internal/geometry"
)

func TestScaleToFit(t *testing.T) {
	tests := []struct {
		name                 string
		contentW, contentH   float64
		viewportW, viewportH float64
		want                 float64
	}{
		{"limited by width", 120, 70, 400, 300, 3.33},
		{"limited by height", 70, 120, 400, 300, 2.5},
		{"exact fit", 100, 100, 250, 250, 2.5},
		{"content larger than viewport", 800, 600, 400, 300, 0.5},
		{"floor to two decimals", 3, 1, 10, 10, 3.33},
		{"zero width content", 0, 50, 400, 300, DefaultScale},
		{"zero height content", 50, 0, 400, 300, DefaultScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleToFit(tt.contentW, tt.contentH, tt.viewportW, tt.viewportH)
			if got != tt.want {
				t.Errorf("ScaleToFit(%v, %v, %v, %v) = %v, want %v",
					tt.contentW, tt.contentH, tt.viewportW, tt.viewportH, got, tt.want)
			}
		})
	}
}

// The floor must be stable: recomputing over identical inputs yields
// bit-identical results, so reactive recomputation cannot oscillate.
func TestScaleToFitStable(t *testing.T) {
	first := ScaleToFit(120, 70, 400, 300)
	for i := 0; i < 100; i++ {
		if got := ScaleToFit(120, 70, 400, 300); got != first {
			t.Fatalf("iteration %d: got %v, want %v", i, got, first)
		}
	}
}

func TestRefitBaseScale(t *testing.T) {
	bounds := geometry.Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50}

	decorative := Config{
		BackgroundEnabled: true,
		BackgroundKey:     BackgroundBubbles,
		ScaleMultiplier:   1,
		BaseScale:         DefaultScale,
	}

	// 100×50 content plus 10 padding per side is 120×70; width limits
	// the fit in a 400×300 viewport at 3.33.
	if got := RefitBaseScale(decorative, bounds, 3, 400, 300); got != 3.33 {
		t.Errorf("decorative refit = %v, want 3.33", got)
	}

	// Background disabled: no auto-fit.
	plain := decorative
	plain.BackgroundEnabled = false
	if got := RefitBaseScale(plain, bounds, 3, 400, 300); got != DefaultScale {
		t.Errorf("disabled background refit = %v, want %v", got, DefaultScale)
	}

	// Solid background is not decorative.
	solid := decorative
	solid.BackgroundKey = BackgroundSolid
	if got := RefitBaseScale(solid, bounds, 3, 400, 300); got != DefaultScale {
		t.Errorf("solid background refit = %v, want %v", got, DefaultScale)
	}

	// No content: nothing to fit.
	if got := RefitBaseScale(decorative, geometry.Bounds{}, 0, 400, 300); got != DefaultScale {
		t.Errorf("empty scope refit = %v, want %v", got, DefaultScale)
	}

	// Content already fills the viewport: the base resets instead of
	// shrinking below the default.
	big := geometry.Bounds{MinX: 0, MinY: 0, MaxX: 800, MaxY: 600}
	if got := RefitBaseScale(decorative, big, 3, 400, 300); got != DefaultScale {
		t.Errorf("oversized content refit = %v, want %v", got, DefaultScale)
	}
}
