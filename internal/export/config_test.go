package export

import (
	"testing"

	"sketchbook/internal/domain"
)

func TestFromAppStateDefaults(t *testing.T) {
	cfg := FromAppState(domain.AppState{})
	if cfg.BackgroundKey != BackgroundSolid {
		t.Errorf("BackgroundKey = %q, want solid", cfg.BackgroundKey)
	}
	if cfg.ScaleMultiplier != 1 {
		t.Errorf("ScaleMultiplier = %v, want 1", cfg.ScaleMultiplier)
	}
	if cfg.BaseScale != DefaultScale {
		t.Errorf("BaseScale = %v, want %v", cfg.BaseScale, DefaultScale)
	}
}

func TestFromAppStateInvalidMultiplier(t *testing.T) {
	cfg := FromAppState(domain.AppState{ExportScale: 2.5})
	if cfg.ScaleMultiplier != 1 {
		t.Errorf("ScaleMultiplier = %v, want 1", cfg.ScaleMultiplier)
	}
}

func TestFromAppStateSelectionOnlyNeedsSelection(t *testing.T) {
	cfg := FromAppState(domain.AppState{ExportSelectionOnly: true})
	if cfg.SelectionOnly {
		t.Error("SelectionOnly true with no selection")
	}
	cfg = FromAppState(domain.AppState{
		ExportSelectionOnly: true,
		SelectedElementIDs:  []string{"a"},
	})
	if !cfg.SelectionOnly {
		t.Error("SelectionOnly false despite selection")
	}
}

func TestEffectiveScale(t *testing.T) {
	cfg := Config{ScaleMultiplier: 2, BaseScale: 3.33}
	if got := cfg.EffectiveScale(); got != 6.66 {
		t.Errorf("EffectiveScale = %v, want 6.66", got)
	}
}

func TestPadding(t *testing.T) {
	plain := Config{BackgroundEnabled: true, BackgroundKey: BackgroundSolid}
	if got := plain.Padding(); got != DefaultPadding {
		t.Errorf("solid padding = %v, want %v", got, DefaultPadding)
	}
	decorative := Config{BackgroundEnabled: true, BackgroundKey: BackgroundMesh}
	if got := decorative.Padding(); got != DecorativePadding {
		t.Errorf("decorative padding = %v, want %v", got, DecorativePadding)
	}
	// A disabled decorative key does not change padding.
	disabled := Config{BackgroundEnabled: false, BackgroundKey: BackgroundMesh}
	if got := disabled.Padding(); got != DefaultPadding {
		t.Errorf("disabled padding = %v, want %v", got, DefaultPadding)
	}
}

func TestDecorative(t *testing.T) {
	if BackgroundSolid.Decorative() {
		t.Error("solid reported decorative")
	}
	for _, k := range []BackgroundKey{BackgroundBubbles, BackgroundMesh, BackgroundGrid} {
		if !k.Decorative() {
			t.Errorf("%s not reported decorative", k)
		}
	}
}
