// Package export holds the pure core of the image-export pipeline:
// selection scoping, scale-to-fit math and the export configuration
// value object. Nothing here touches storage, the Wails runtime or
// the rasterizer.
package export

import "sketchbook/internal/domain"

// BackgroundKey identifies the backdrop composited behind exported
// content. Every key except BackgroundSolid is decorative: it carries
// a fixed padding and triggers the automatic scale-to-fit.
type BackgroundKey string

const (
	BackgroundSolid   BackgroundKey = "solid"
	BackgroundBubbles BackgroundKey = "bubbles"
	BackgroundMesh    BackgroundKey = "mesh"
	BackgroundGrid    BackgroundKey = "grid"
)

// Decorative reports whether the key names a non-solid backdrop.
func (k BackgroundKey) Decorative() bool {
	return k != "" && k != BackgroundSolid
}

const (
	// DefaultScale is the neutral base scale the discrete multiplier
	// choices apply to when no auto-fit is in effect.
	DefaultScale = 1.0

	// DefaultPadding is drawn around content on plain exports.
	DefaultPadding = 10.0

	// DecorativePadding is added per side when a decorative background
	// is active, both when fitting and when rasterizing.
	DecorativePadding = 10.0

	// MaxSurfaceDim is the per-side pixel ceiling a rasterized surface
	// may reach before encoding is considered to fail on the platform.
	MaxSurfaceDim = 16384
)

// ScaleMultipliers are the discrete scale choices offered to the user,
// layered on top of the base scale.
var ScaleMultipliers = []float64{1, 2, 3}

// Config parameterizes both the preview and the final export.
// EffectiveScale is always ScaleMultiplier × BaseScale; BaseScale is
// derived (never user-set) and recomputed whenever scope or background
// change.
type Config struct {
	SelectionOnly     bool          `json:"selectionOnly"`
	BackgroundEnabled bool          `json:"backgroundEnabled"`
	BackgroundKey     BackgroundKey `json:"backgroundKey"`
	DarkMode          bool          `json:"darkMode"`
	EmbedScene        bool          `json:"embedScene"`
	ScaleMultiplier   float64       `json:"scaleMultiplier"`
	BaseScale         float64       `json:"baseScale"`
	ProjectName       string        `json:"projectName"`
}

// EffectiveScale is the scale final export rasterizes at.
func (c Config) EffectiveScale() float64 {
	return c.ScaleMultiplier * c.BaseScale
}

// DecorativeActive reports whether a decorative background is in
// effect (enabled and non-solid).
func (c Config) DecorativeActive() bool {
	return c.BackgroundEnabled && c.BackgroundKey.Decorative()
}

// Padding returns the per-side content padding the current
// configuration exports with.
func (c Config) Padding() float64 {
	if c.DecorativeActive() {
		return DecorativePadding
	}
	return DefaultPadding
}

// FromAppState builds the dialog's initial configuration from the
// ambient application state, the way the dialog sees it on open.
func FromAppState(st domain.AppState) Config {
	cfg := Config{
		SelectionOnly:     st.ExportSelectionOnly && len(st.SelectedElementIDs) > 0,
		BackgroundEnabled: st.ExportBackground,
		BackgroundKey:     BackgroundKey(st.ExportBackgroundKey),
		DarkMode:          st.ExportDarkMode,
		EmbedScene:        st.ExportEmbedScene,
		ScaleMultiplier:   st.ExportScale,
		BaseScale:         DefaultScale,
		ProjectName:       st.Name,
	}
	if cfg.BackgroundKey == "" {
		cfg.BackgroundKey = BackgroundSolid
	}
	if !validMultiplier(cfg.ScaleMultiplier) {
		cfg.ScaleMultiplier = ScaleMultipliers[0]
	}
	return cfg
}

func validMultiplier(m float64) bool {
	for _, v := range ScaleMultipliers {
		if m == v {
			return true
		}
	}
	return false
}
