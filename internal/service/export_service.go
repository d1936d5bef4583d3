package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"sketchbook/internal/domain"
	"sketchbook/internal/export"
	"sketchbook/internal/geometry"
	"sketchbook/internal/raster"
)

// ─────────────────────────────────────────────────────────────
// Export Service — preview pipeline and final export
// ─────────────────────────────────────────────────────────────

// Event names pushed to the frontend by export sessions.
const (
	EventPreview       = "export:preview"
	EventPreviewError  = "export:preview-error"
	EventConfigChanged = "export:config-changed"
	EventClipboard     = "export:clipboard"
)

// ExportService owns the single active export session. Opening the
// export dialog opens a session; closing it drops the session.
type ExportService struct {
	scenes  *SceneService
	emitter EventEmitter

	mu      sync.Mutex
	session *ExportSession
}

// NewExportService creates an ExportService.
func NewExportService(scenes *SceneService, emitter EventEmitter) *ExportService {
	return &ExportService{scenes: scenes, emitter: emitter}
}

// OpenSession starts an export session for the given ambient state,
// loading the scene snapshot the session previews and exports.
// Any previously open session is replaced.
func (s *ExportService) OpenSession(ctx context.Context, st domain.AppState, viewportW, viewportH float64) (*ExportSession, error) {
	elements, err := s.scenes.ListElements(st.SceneID)
	if err != nil {
		return nil, fmt.Errorf("load scene elements: %w", err)
	}
	images, err := s.scenes.LoadSceneImages(st.SceneID)
	if err != nil {
		return nil, fmt.Errorf("load scene images: %w", err)
	}
	sceneJSON, err := s.scenes.SnapshotJSON(st.SceneID)
	if err != nil {
		return nil, fmt.Errorf("snapshot scene: %w", err)
	}

	sess := &ExportSession{
		ctx:            ctx,
		sceneID:        st.SceneID,
		scenes:         s.scenes,
		emitter:        s.emitter,
		cfg:            export.FromAppState(st),
		selectedIDs:    st.SelectedElementIDs,
		viewportW:      viewportW,
		viewportH:      viewportH,
		viewBackground: st.ViewBackgroundColor,
		elements:       elements,
		images:         images,
		sceneJSON:      sceneJSON,
	}
	sess.render = sess.rasterRender

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	sess.Refresh()
	return sess, nil
}

// Session returns the active session, or nil.
func (s *ExportService) Session() *ExportSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// CloseSession drops the active session. In-flight renders finish and
// are discarded by the generation check.
func (s *ExportService) CloseSession() {
	s.mu.Lock()
	if s.session != nil {
		s.session.invalidate()
	}
	s.session = nil
	s.mu.Unlock()
}

// NotifySceneChanged reloads the session's scene snapshot when the
// underlying scene mutates while the dialog is open.
func (s *ExportService) NotifySceneChanged(sceneID string) {
	sess := s.Session()
	if sess == nil || sess.sceneID != sceneID {
		return
	}
	elements, err := s.scenes.ListElements(sceneID)
	if err != nil {
		log.Printf("export: reload elements: %v", err)
		return
	}
	sceneJSON, err := s.scenes.SnapshotJSON(sceneID)
	if err != nil {
		log.Printf("export: snapshot scene: %v", err)
		return
	}
	sess.setSceneSnapshot(elements, sceneJSON)
	sess.Refresh()
}

// NotifyFilesChanged reloads attachment images when a watched file
// changes on disk. Only the render flow reruns: attachment bytes do
// not move the content bounding box.
func (s *ExportService) NotifyFilesChanged(sceneID string) {
	sess := s.Session()
	if sess == nil || sess.sceneID != sceneID {
		return
	}
	images, err := s.scenes.LoadSceneImages(sceneID)
	if err != nil {
		log.Printf("export: reload images: %v", err)
		return
	}
	sess.setImages(images)
	sess.requestRender()
}

// ExportArtifact is a finished export: bytes plus the metadata the
// app layer needs to hand them off.
type ExportArtifact struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// DataURL returns the artifact as a base64 data URL.
func (a *ExportArtifact) DataURL() string {
	return "data:" + a.MimeType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// renderInput is one render trigger's frozen inputs.
type renderInput struct {
	generation uint64
	elements   []domain.Element
	images     map[string]image.Image
	opts       raster.Options
}

// renderFunc produces a surface and its encoded PNG. Swappable in
// tests to control render timing.
type renderFunc func(renderInput) (*image.RGBA, []byte, error)

// ExportSession is the live state behind the export dialog: the
// configuration value object, the scoped-scene snapshot, and the
// asynchronous preview pipeline.
type ExportSession struct {
	ctx     context.Context
	sceneID string
	scenes  *SceneService
	emitter EventEmitter
	render  renderFunc

	mu             sync.Mutex
	cfg            export.Config
	selectedIDs    []string
	viewportW      float64
	viewportH      float64
	viewBackground string
	elements       []domain.Element
	images         map[string]image.Image
	sceneJSON      []byte
	lastSurface    *image.RGBA
	lastErr        error

	// renderGen orders render triggers: only the newest generation may
	// commit its surface, so a slow stale render resolving late cannot
	// overwrite a fresher preview.
	renderGen atomic.Uint64
	renderWG  sync.WaitGroup

	// writeMu serializes config write-backs; each one reads the config
	// under the lock, so whichever runs last persists the newest state.
	writeMu sync.Mutex
	writeWG sync.WaitGroup
}

// Config returns a copy of the current configuration.
func (s *ExportSession) Config() export.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// LastError returns the recorded render failure, nil after a
// successful render.
func (s *ExportSession) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// LastSurface returns the currently displayed preview surface.
func (s *ExportSession) LastSurface() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSurface
}

// ScopedElements returns the elements currently in scope for export.
func (s *ExportSession) ScopedElements() []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return export.Scope(s.elements, s.selectedIDs, s.cfg.SelectionOnly)
}

// ─── Setters ─────────────────────────────────────────────────
//
// Each setter updates local state synchronously, dispatches the change
// to the ambient application state without awaiting it, and reruns the
// reactive flows. Setting the current value again is a no-op.

// SetSelectionOnly toggles export scope between the full scene and the
// selection. With nothing selected the toggle is disallowed and
// silently ignored.
func (s *ExportSession) SetSelectionOnly(v bool) {
	s.mu.Lock()
	if len(s.selectedIDs) == 0 || s.cfg.SelectionOnly == v {
		s.mu.Unlock()
		return
	}
	s.cfg.SelectionOnly = v
	s.mu.Unlock()
	s.dispatch("exportSelectionOnly", v)
	s.Refresh()
}

// SetBackgroundEnabled toggles the export backdrop. Disabling keeps
// the last chosen background key so re-enabling restores it.
func (s *ExportSession) SetBackgroundEnabled(v bool) {
	s.mu.Lock()
	if s.cfg.BackgroundEnabled == v {
		s.mu.Unlock()
		return
	}
	s.cfg.BackgroundEnabled = v
	s.mu.Unlock()
	s.dispatch("exportBackground", v)
	s.Refresh()
}

// SetBackgroundKey selects the backdrop style. Unknown keys are
// ignored.
func (s *ExportSession) SetBackgroundKey(key export.BackgroundKey) {
	switch key {
	case export.BackgroundSolid, export.BackgroundBubbles, export.BackgroundMesh, export.BackgroundGrid:
	default:
		return
	}
	s.mu.Lock()
	if s.cfg.BackgroundKey == key {
		s.mu.Unlock()
		return
	}
	s.cfg.BackgroundKey = key
	s.mu.Unlock()
	s.dispatch("exportBackgroundKey", string(key))
	s.Refresh()
}

// SetDarkMode toggles the inverted palette.
func (s *ExportSession) SetDarkMode(v bool) {
	s.mu.Lock()
	if s.cfg.DarkMode == v {
		s.mu.Unlock()
		return
	}
	s.cfg.DarkMode = v
	s.mu.Unlock()
	s.dispatch("exportDarkMode", v)
	s.Refresh()
}

// SetEmbedScene toggles embedding the scene JSON into exports.
func (s *ExportSession) SetEmbedScene(v bool) {
	s.mu.Lock()
	if s.cfg.EmbedScene == v {
		s.mu.Unlock()
		return
	}
	s.cfg.EmbedScene = v
	s.mu.Unlock()
	s.dispatch("exportEmbedScene", v)
	// Embedding does not change the rasterized pixels; no re-render.
}

// SetScaleMultiplier selects one of the discrete scale choices.
// Values outside the fixed set are ignored.
func (s *ExportSession) SetScaleMultiplier(m float64) {
	valid := false
	for _, v := range export.ScaleMultipliers {
		if m == v {
			valid = true
			break
		}
	}
	if !valid {
		return
	}
	s.mu.Lock()
	if s.cfg.ScaleMultiplier == m {
		s.mu.Unlock()
		return
	}
	s.cfg.ScaleMultiplier = m
	effective := s.cfg.EffectiveScale()
	s.mu.Unlock()
	s.dispatch("exportScale", effective)
	s.requestRender()
}

// SetProjectName updates the export filename stem.
func (s *ExportSession) SetProjectName(name string) {
	s.mu.Lock()
	if s.cfg.ProjectName == name {
		s.mu.Unlock()
		return
	}
	s.cfg.ProjectName = name
	s.mu.Unlock()
	s.dispatch("name", name)
}

// SetSelection replaces the live selection. Selection belongs to the
// frontend, so nothing is dispatched back.
func (s *ExportSession) SetSelection(ids []string) {
	s.mu.Lock()
	s.selectedIDs = ids
	if len(ids) == 0 {
		// An empty selection makes selection-only meaningless.
		s.cfg.SelectionOnly = false
	}
	s.mu.Unlock()
	s.Refresh()
}

// SetViewport records the preview area size once it is laid out.
func (s *ExportSession) SetViewport(w, h float64) {
	s.mu.Lock()
	if s.viewportW == w && s.viewportH == h {
		s.mu.Unlock()
		return
	}
	s.viewportW = w
	s.viewportH = h
	s.mu.Unlock()
	s.Refresh()
}

// dispatch forwards one configuration change to the ambient
// application state: an event for anyone listening, and a
// fire-and-forget write-back of the scene's export preferences.
func (s *ExportSession) dispatch(field string, value any) {
	s.emitter.Emit(s.ctx, EventConfigChanged, map[string]any{
		"sceneId": s.sceneID,
		"field":   field,
		"value":   value,
	})
	s.writeWG.Add(1)
	go func() {
		defer s.writeWG.Done()
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		cfg := s.Config()
		sc, err := s.scenes.GetScene(s.sceneID)
		if err != nil {
			log.Printf("export: write back config: %v", err)
			return
		}
		sc.ExportBackground = cfg.BackgroundEnabled
		sc.ExportBackgroundKey = string(cfg.BackgroundKey)
		sc.ExportDarkMode = cfg.DarkMode
		sc.ExportEmbedScene = cfg.EmbedScene
		sc.ExportScale = cfg.EffectiveScale()
		sc.ExportSelectionOnly = cfg.SelectionOnly
		if cfg.ProjectName != "" {
			sc.Name = cfg.ProjectName
		}
		if err := s.scenes.UpdateScene(sc); err != nil {
			log.Printf("export: write back config: %v", err)
		}
	}()
}

// ─── Reactive flows ──────────────────────────────────────────

// Refresh reruns both recomputation flows: the synchronous scale fit,
// then an asynchronous render.
func (s *ExportSession) Refresh() {
	s.refit()
	s.requestRender()
}

// refit recomputes the base scale for the current scope, background
// and viewport. A fit above 1 becomes the base scale and is pushed
// into the active export scale; otherwise the base resets to the
// default so the plain multiplier choices apply.
func (s *ExportSession) refit() {
	s.mu.Lock()
	scoped := export.Scope(s.elements, s.selectedIDs, s.cfg.SelectionOnly)
	bounds, _ := geometry.FromElements(scoped)
	newBase := export.RefitBaseScale(s.cfg, bounds, len(scoped), s.viewportW, s.viewportH)
	if newBase == s.cfg.BaseScale {
		s.mu.Unlock()
		return
	}
	s.cfg.BaseScale = newBase
	if newBase > export.DefaultScale {
		s.cfg.ScaleMultiplier = 1
	}
	effective := s.cfg.EffectiveScale()
	s.mu.Unlock()
	s.dispatch("exportScale", effective)
}

// requestRender starts an asynchronous render of the current inputs.
// A zero-width viewport means the preview region is not laid out yet;
// skip silently — no surface, no error.
func (s *ExportSession) requestRender() {
	s.mu.Lock()
	if s.viewportW <= 0 {
		s.mu.Unlock()
		return
	}
	fit := int(s.viewportW)
	if s.viewportH > 0 && s.viewportH < s.viewportW {
		fit = int(s.viewportH)
	}
	in := renderInput{
		generation: s.renderGen.Add(1),
		elements:   export.Scope(s.elements, s.selectedIDs, s.cfg.SelectionOnly),
		images:     s.images,
		opts: raster.Options{
			Scale:             s.cfg.BaseScale,
			Padding:           s.cfg.Padding(),
			BackgroundEnabled: s.cfg.BackgroundEnabled,
			BackgroundKey:     s.cfg.BackgroundKey,
			BackgroundColor:   s.viewBackground,
			DarkMode:          s.cfg.DarkMode,
			FitWithin:         fit,
		},
	}
	s.mu.Unlock()

	s.renderWG.Add(1)
	go func() {
		defer s.renderWG.Done()
		s.renderOnce(in)
	}()
}

// renderOnce runs one render to completion and commits the result if
// it is still the newest trigger.
func (s *ExportSession) renderOnce(in renderInput) {
	img, encoded, err := s.render(in)

	s.mu.Lock()
	if in.generation != s.renderGen.Load() {
		// A newer trigger exists; this result is stale either way.
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.emitter.Emit(s.ctx, EventPreviewError, map[string]any{
			"sceneId": s.sceneID,
			"error":   err.Error(),
		})
		return
	}
	s.lastSurface = img
	s.lastErr = nil
	s.mu.Unlock()

	s.emitter.Emit(s.ctx, EventPreview, map[string]any{
		"sceneId": s.sceneID,
		"dataUrl": "data:image/png;base64," + base64.StdEncoding.EncodeToString(encoded),
		"width":   img.Bounds().Dx(),
		"height":  img.Bounds().Dy(),
	})
}

// rasterRender is the production render function: rasterize, then
// probe encodability. The encode probe is what catches surfaces whose
// pixel dimensions exceed the platform ceiling.
func (s *ExportSession) rasterRender(in renderInput) (*image.RGBA, []byte, error) {
	img, err := raster.Rasterize(in.elements, in.images, in.opts)
	if err != nil {
		return nil, nil, err
	}
	encoded, err := raster.EncodePNG(img, nil)
	if err != nil {
		return nil, nil, err
	}
	return img, encoded, nil
}

// invalidate bumps the generation so in-flight renders of a closed
// session discard themselves.
func (s *ExportSession) invalidate() {
	s.renderGen.Add(1)
}

func (s *ExportSession) setSceneSnapshot(elements []domain.Element, sceneJSON []byte) {
	s.mu.Lock()
	s.elements = elements
	s.sceneJSON = sceneJSON
	s.mu.Unlock()
}

func (s *ExportSession) setImages(images map[string]image.Image) {
	s.mu.Lock()
	s.images = images
	s.mu.Unlock()
}

// ─── Final export ────────────────────────────────────────────
//
// Final exports rasterize the scoped elements from scratch at full
// resolution; the preview thumbnail is never reused. A failed preview
// does not block them.

// ExportPNG produces the raster artifact.
func (s *ExportSession) ExportPNG() (*ExportArtifact, error) {
	elements, images, sceneJSON, opts, name := s.exportInputs()
	img, err := raster.Rasterize(elements, images, opts)
	if err != nil {
		return nil, fmt.Errorf("export png: %w", err)
	}
	data, err := raster.EncodePNG(img, sceneJSON)
	if err != nil {
		return nil, fmt.Errorf("export png: %w", err)
	}
	return &ExportArtifact{Filename: name + ".png", MimeType: "image/png", Data: data}, nil
}

// ExportSVG produces the vector artifact.
func (s *ExportSession) ExportSVG() (*ExportArtifact, error) {
	elements, _, sceneJSON, opts, name := s.exportInputs()
	data, err := raster.WriteSVG(elements, opts, sceneJSON)
	if err != nil {
		return nil, fmt.Errorf("export svg: %w", err)
	}
	return &ExportArtifact{Filename: name + ".svg", MimeType: "image/svg+xml", Data: data}, nil
}

// ExportClipboardPNG produces the raster artifact for a clipboard
// write. The caller is responsible for checking platform capability
// before offering this path.
func (s *ExportSession) ExportClipboardPNG() (*ExportArtifact, error) {
	return s.ExportPNG()
}

func (s *ExportSession) exportInputs() ([]domain.Element, map[string]image.Image, []byte, raster.Options, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elements := export.Scope(s.elements, s.selectedIDs, s.cfg.SelectionOnly)
	var sceneJSON []byte
	if s.cfg.EmbedScene {
		sceneJSON = s.sceneJSON
	}
	opts := raster.Options{
		Scale:             s.cfg.EffectiveScale(),
		Padding:           s.cfg.Padding(),
		BackgroundEnabled: s.cfg.BackgroundEnabled,
		BackgroundKey:     s.cfg.BackgroundKey,
		BackgroundColor:   s.viewBackground,
		DarkMode:          s.cfg.DarkMode,
	}
	return elements, s.images, sceneJSON, opts, exportFilename(s.cfg.ProjectName)
}

// exportFilename sanitizes the project name into a filename stem.
func exportFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == ' ':
			b.WriteRune(r)
		}
	}
	stem := strings.TrimSpace(b.String())
	if stem == "" {
		return "untitled"
	}
	return stem
}
