package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"sketchbook/internal/domain"
	"sketchbook/internal/export"
	"sketchbook/internal/raster"
	"sketchbook/internal/storage"
)

// newTestScene builds a scene service over a temp database with one
// scene holding a 100×50 rectangle at the origin.
func newTestScene(t *testing.T, emitter EventEmitter) (*SceneService, *domain.Scene) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "test.db"), filepath.Join(dir, "scenes"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewSceneService(
		storage.NewSceneStore(db),
		storage.NewElementStore(db),
		storage.NewFileStore(db),
		db.DataDir(),
		emitter,
	)
	sc, err := svc.CreateScene("Test Scene")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateElement(&domain.Element{
		ID:          "rect",
		SceneID:     sc.ID,
		Type:        domain.ElementRectangle,
		Width:       100,
		Height:      50,
		StrokeColor: "#1e1e1e",
		StrokeWidth: 2,
		Opacity:     1,
	}); err != nil {
		t.Fatal(err)
	}
	return svc, sc
}

func openSession(t *testing.T, selected []string) (*ExportSession, *ExportService, *MockEmitter) {
	t.Helper()
	emitter := &MockEmitter{}
	scenes, sc := newTestScene(t, emitter)
	exports := NewExportService(scenes, emitter)

	sess, err := exports.OpenSession(context.Background(), domain.AppState{
		SceneID:             sc.ID,
		Name:                sc.Name,
		ViewBackgroundColor: "#ffffff",
		SelectedElementIDs:  selected,
		ExportBackground:    true,
		ExportBackgroundKey: "solid",
		ExportScale:         1,
	}, 400, 300)
	if err != nil {
		t.Fatal(err)
	}
	return sess, exports, emitter
}

func configChanges(emitter *MockEmitter, field string) int {
	n := 0
	for _, e := range emitter.Events() {
		if e.Event != EventConfigChanged {
			continue
		}
		if m, ok := e.Data.(map[string]any); ok && m["field"] == field {
			n++
		}
	}
	return n
}

func TestOpenSessionRendersPreview(t *testing.T) {
	sess, _, emitter := openSession(t, nil)
	sess.renderWG.Wait()

	if sess.LastSurface() == nil {
		t.Fatal("no preview surface after open")
	}
	if err := sess.LastError(); err != nil {
		t.Fatalf("preview error: %v", err)
	}
	if emitter.CountEvent(EventPreview) == 0 {
		t.Error("no preview event emitted")
	}

	cfg := sess.Config()
	if cfg.BackgroundKey != export.BackgroundSolid || cfg.ScaleMultiplier != 1 || cfg.BaseScale != 1 {
		t.Errorf("initial config = %+v", cfg)
	}
}

func TestSetterIdempotent(t *testing.T) {
	sess, _, emitter := openSession(t, nil)
	sess.renderWG.Wait()

	sess.SetDarkMode(true)
	sess.SetDarkMode(true)
	sess.SetDarkMode(true)
	sess.renderWG.Wait()

	if got := configChanges(emitter, "exportDarkMode"); got != 1 {
		t.Errorf("dispatched %d dark mode changes, want 1", got)
	}
	if !sess.Config().DarkMode {
		t.Error("dark mode not set")
	}
}

func TestSelectionOnlyIgnoredWithoutSelection(t *testing.T) {
	sess, _, emitter := openSession(t, nil)
	sess.renderWG.Wait()

	sess.SetSelectionOnly(true)
	if sess.Config().SelectionOnly {
		t.Error("selection-only set with nothing selected")
	}
	if got := configChanges(emitter, "exportSelectionOnly"); got != 0 {
		t.Errorf("dispatched %d selection changes, want 0", got)
	}
}

func TestSelectionOnlyWithSelection(t *testing.T) {
	sess, _, _ := openSession(t, []string{"rect"})
	sess.renderWG.Wait()

	sess.SetSelectionOnly(true)
	if !sess.Config().SelectionOnly {
		t.Error("selection-only not set")
	}
	if got := len(sess.ScopedElements()); got != 1 {
		t.Errorf("scoped = %d elements, want 1", got)
	}

	// Clearing the selection drops selection-only with it.
	sess.SetSelection(nil)
	sess.renderWG.Wait()
	if sess.Config().SelectionOnly {
		t.Error("selection-only survived empty selection")
	}
}

func TestBackgroundKeyRetainedWhenDisabled(t *testing.T) {
	sess, _, _ := openSession(t, nil)
	sess.renderWG.Wait()

	sess.SetBackgroundKey(export.BackgroundMesh)
	sess.SetBackgroundEnabled(false)
	sess.renderWG.Wait()

	cfg := sess.Config()
	if cfg.BackgroundEnabled {
		t.Error("background still enabled")
	}
	if cfg.BackgroundKey != export.BackgroundMesh {
		t.Errorf("background key = %q, want mesh", cfg.BackgroundKey)
	}

	sess.SetBackgroundEnabled(true)
	if sess.Config().BackgroundKey != export.BackgroundMesh {
		t.Error("background key lost on re-enable")
	}
}

func TestInvalidInputsIgnored(t *testing.T) {
	sess, _, emitter := openSession(t, nil)
	sess.renderWG.Wait()

	sess.SetScaleMultiplier(5)
	sess.SetBackgroundKey("sparkles")

	cfg := sess.Config()
	if cfg.ScaleMultiplier != 1 {
		t.Errorf("multiplier = %v, want 1", cfg.ScaleMultiplier)
	}
	if cfg.BackgroundKey != export.BackgroundSolid {
		t.Errorf("key = %q, want solid", cfg.BackgroundKey)
	}
	if got := configChanges(emitter, "exportScale"); got != 0 {
		t.Errorf("dispatched %d scale changes, want 0", got)
	}
}

func TestDecorativeBackgroundRefitsScale(t *testing.T) {
	sess, _, _ := openSession(t, nil)
	sess.renderWG.Wait()

	// 100×50 content plus decorative padding fits a 400×300 viewport
	// at 3.33.
	sess.SetBackgroundKey(export.BackgroundBubbles)
	sess.renderWG.Wait()

	cfg := sess.Config()
	if cfg.BaseScale != 3.33 {
		t.Errorf("base scale = %v, want 3.33", cfg.BaseScale)
	}
	if cfg.ScaleMultiplier != 1 {
		t.Errorf("multiplier = %v, want 1 after refit", cfg.ScaleMultiplier)
	}
	if cfg.EffectiveScale() != 3.33 {
		t.Errorf("effective = %v, want 3.33", cfg.EffectiveScale())
	}

	// Turning the background off resets the fit.
	sess.SetBackgroundEnabled(false)
	sess.renderWG.Wait()
	if got := sess.Config().BaseScale; got != export.DefaultScale {
		t.Errorf("base scale = %v, want %v after disable", got, export.DefaultScale)
	}
}

func TestStaleRenderDiscarded(t *testing.T) {
	sess, _, _ := openSession(t, nil)
	sess.renderWG.Wait()

	slowImg := image.NewRGBA(image.Rect(0, 0, 1, 1))
	fastImg := image.NewRGBA(image.Rect(0, 0, 2, 2))
	release := make(chan struct{})
	slowGen := sess.renderGen.Load() + 1

	sess.render = func(in renderInput) (*image.RGBA, []byte, error) {
		if in.generation == slowGen {
			<-release
			return slowImg, []byte{1}, nil
		}
		return fastImg, []byte{2}, nil
	}

	sess.requestRender() // slow, blocks
	sess.requestRender() // fast, completes first
	close(release)
	sess.renderWG.Wait()

	if got := sess.LastSurface(); got != fastImg {
		t.Errorf("surface = %p, want result of newest trigger %p", got, fastImg)
	}
}

func TestRenderErrorKeepsPriorSurface(t *testing.T) {
	sess, _, emitter := openSession(t, nil)
	sess.renderWG.Wait()
	prior := sess.LastSurface()
	if prior == nil {
		t.Fatal("no initial surface")
	}

	sess.render = func(in renderInput) (*image.RGBA, []byte, error) {
		return nil, nil, fmt.Errorf("render: %w", &raster.SurfaceSizeError{Width: 99999, Height: 10, Limit: export.MaxSurfaceDim})
	}
	sess.requestRender()
	sess.renderWG.Wait()

	if sess.LastError() == nil {
		t.Error("error not recorded")
	}
	if sess.LastSurface() != prior {
		t.Error("prior surface dropped on failure")
	}
	if emitter.CountEvent(EventPreviewError) == 0 {
		t.Error("no preview-error event")
	}

	// A later successful render clears the error.
	ok := image.NewRGBA(image.Rect(0, 0, 1, 1))
	sess.render = func(in renderInput) (*image.RGBA, []byte, error) {
		return ok, []byte{1}, nil
	}
	sess.requestRender()
	sess.renderWG.Wait()
	if sess.LastError() != nil {
		t.Error("error not cleared after recovery")
	}
}

func TestZeroViewportSkipsRender(t *testing.T) {
	emitter := &MockEmitter{}
	scenes, sc := newTestScene(t, emitter)
	exports := NewExportService(scenes, emitter)

	sess, err := exports.OpenSession(context.Background(), domain.AppState{
		SceneID: sc.ID, Name: sc.Name, ExportScale: 1,
	}, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	sess.renderWG.Wait()

	if sess.LastSurface() != nil {
		t.Error("rendered despite zero viewport")
	}
	if sess.LastError() != nil {
		t.Errorf("error recorded for zero viewport: %v", sess.LastError())
	}
	if emitter.CountEvent(EventPreviewError) != 0 {
		t.Error("preview-error emitted for zero viewport")
	}
}

func TestExportPNGAtEffectiveScale(t *testing.T) {
	sess, _, _ := openSession(t, nil)
	sess.renderWG.Wait()

	sess.SetScaleMultiplier(2)
	sess.renderWG.Wait()

	art, err := sess.ExportPNG()
	if err != nil {
		t.Fatal(err)
	}
	if art.MimeType != "image/png" {
		t.Errorf("mime = %q", art.MimeType)
	}
	img, err := png.Decode(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatal(err)
	}
	// (100+2·10)×2 by (50+2·10)×2.
	if img.Bounds().Dx() != 240 || img.Bounds().Dy() != 140 {
		t.Errorf("export size = %v, want 240×140", img.Bounds())
	}
}

func TestExportPNGEmbedsScene(t *testing.T) {
	sess, _, _ := openSession(t, nil)
	sess.renderWG.Wait()

	sess.SetEmbedScene(true)
	art, err := sess.ExportPNG()
	if err != nil {
		t.Fatal(err)
	}
	scene, ok := raster.ExtractScene(art.Data)
	if !ok {
		t.Fatal("no embedded scene in export")
	}
	if !bytes.Contains(scene, []byte(`"elements"`)) {
		t.Errorf("embedded payload looks wrong: %s", scene)
	}

	// Without the toggle nothing is embedded.
	sess.SetEmbedScene(false)
	art, err = sess.ExportPNG()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := raster.ExtractScene(art.Data); ok {
		t.Error("scene embedded despite toggle off")
	}
}

func TestExportSVG(t *testing.T) {
	sess, _, _ := openSession(t, nil)
	sess.renderWG.Wait()

	art, err := sess.ExportSVG()
	if err != nil {
		t.Fatal(err)
	}
	if art.MimeType != "image/svg+xml" {
		t.Errorf("mime = %q", art.MimeType)
	}
	if !bytes.Contains(art.Data, []byte("<svg")) {
		t.Error("not svg output")
	}
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Diagram", "My Diagram"},
		{"  spaced  ", "spaced"},
		{"slash/colon:star*", "slashcolonstar"},
		{"", "untitled"},
		{"???", "untitled"},
	}
	for _, tt := range tests {
		if got := exportFilename(tt.in); got != tt.want {
			t.Errorf("exportFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigWriteBackPersistsNewestState(t *testing.T) {
	sess, exports, _ := openSession(t, nil)
	sess.renderWG.Wait()

	// A burst of changes must leave the scene row matching the final
	// configuration, regardless of how the write-back goroutines
	// interleave.
	sess.SetDarkMode(true)
	sess.SetScaleMultiplier(2)
	sess.SetBackgroundKey(export.BackgroundGrid)
	sess.SetBackgroundEnabled(false)
	sess.SetEmbedScene(true)
	sess.writeWG.Wait()

	sc, err := exports.scenes.GetScene(sess.sceneID)
	if err != nil {
		t.Fatal(err)
	}
	cfg := sess.Config()
	if sc.ExportDarkMode != cfg.DarkMode {
		t.Errorf("persisted dark mode = %v, want %v", sc.ExportDarkMode, cfg.DarkMode)
	}
	if sc.ExportScale != cfg.EffectiveScale() {
		t.Errorf("persisted scale = %v, want %v", sc.ExportScale, cfg.EffectiveScale())
	}
	if sc.ExportBackgroundKey != string(cfg.BackgroundKey) {
		t.Errorf("persisted background key = %q, want %q", sc.ExportBackgroundKey, cfg.BackgroundKey)
	}
	if sc.ExportBackground != cfg.BackgroundEnabled {
		t.Errorf("persisted background = %v, want %v", sc.ExportBackground, cfg.BackgroundEnabled)
	}
	if sc.ExportEmbedScene != cfg.EmbedScene {
		t.Errorf("persisted embed scene = %v, want %v", sc.ExportEmbedScene, cfg.EmbedScene)
	}
}

func TestSceneChangeRefreshesSession(t *testing.T) {
	sess, exports, _ := openSession(t, nil)
	sess.renderWG.Wait()

	svc := exports.scenes
	if _, err := svc.CreateElement(&domain.Element{
		ID:      "rect2",
		SceneID: sess.sceneID,
		Type:    domain.ElementRectangle,
		X:       200,
		Width:   50,
		Height:  50,
	}); err != nil {
		t.Fatal(err)
	}
	exports.NotifySceneChanged(sess.sceneID)
	sess.renderWG.Wait()

	if got := len(sess.ScopedElements()); got != 2 {
		t.Errorf("scoped = %d elements after scene change, want 2", got)
	}
}
