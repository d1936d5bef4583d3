package app

import (
	"fmt"
	"os"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"sketchbook/internal/domain"
	"sketchbook/internal/export"
	"sketchbook/internal/service"
)

// ============================================================
// Export Dialog
// ============================================================

// ExportDialogState is what the frontend needs to draw the dialog.
type ExportDialogState struct {
	Config       export.Config `json:"config"`
	Capabilities Capabilities  `json:"capabilities"`
}

// Capabilities reports what the current platform supports. The
// frontend hides or disables affordances accordingly instead of
// letting them fail.
type Capabilities struct {
	ClipboardImage bool   `json:"clipboardImage"`
	DarkModeFilter bool   `json:"darkModeFilter"`
	Platform       string `json:"platform"`
}

func (a *App) detectCapabilities() Capabilities {
	env := wailsRuntime.Environment(a.ctx)
	return Capabilities{
		// Linux WebKit builds lack the async clipboard image API.
		ClipboardImage: env.Platform != "linux",
		DarkModeFilter: true,
		Platform:       env.Platform,
	}
}

// OpenExportDialog starts an export session for the given ambient
// state and returns the dialog's initial state. The first preview
// render is already in flight when this returns.
func (a *App) OpenExportDialog(st domain.AppState, viewportW, viewportH float64) (*ExportDialogState, error) {
	sess, err := a.exports.OpenSession(a.ctx, st, viewportW, viewportH)
	if err != nil {
		return nil, fmt.Errorf("open export dialog: %w", err)
	}
	return &ExportDialogState{
		Config:       sess.Config(),
		Capabilities: a.detectCapabilities(),
	}, nil
}

// CloseExportDialog drops the active session.
func (a *App) CloseExportDialog() {
	a.exports.CloseSession()
}

// session returns the active session or an error the frontend can
// surface.
func (a *App) session() (*service.ExportSession, error) {
	sess := a.exports.Session()
	if sess == nil {
		return nil, fmt.Errorf("no export session open")
	}
	return sess, nil
}

func (a *App) SetExportSelectionOnly(v bool) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetSelectionOnly(v)
	return nil
}

func (a *App) SetExportBackground(v bool) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetBackgroundEnabled(v)
	return nil
}

func (a *App) SetExportBackgroundKey(key string) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetBackgroundKey(export.BackgroundKey(key))
	return nil
}

func (a *App) SetExportDarkMode(v bool) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetDarkMode(v)
	return nil
}

func (a *App) SetExportEmbedScene(v bool) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetEmbedScene(v)
	return nil
}

func (a *App) SetExportScale(multiplier float64) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetScaleMultiplier(multiplier)
	return nil
}

func (a *App) SetExportName(name string) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetProjectName(name)
	return nil
}

// SetExportSelection updates the live selection while the dialog is
// open.
func (a *App) SetExportSelection(ids []string) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetSelection(ids)
	return nil
}

// SetExportViewport reports the preview area's laid-out size.
func (a *App) SetExportViewport(w, h float64) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.SetViewport(w, h)
	return nil
}

// RequestExportPreview forces a preview re-render.
func (a *App) RequestExportPreview() error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	sess.Refresh()
	return nil
}

// GetExportConfig returns the session's current configuration.
func (a *App) GetExportConfig() (*export.Config, error) {
	sess, err := a.session()
	if err != nil {
		return nil, err
	}
	cfg := sess.Config()
	return &cfg, nil
}

// ============================================================
// Final Export
// ============================================================

// ExportToFile produces the artifact for the given format ("png" or
// "svg"), asks the user where to save it, and writes it. Returns the
// chosen path, empty when the user cancelled.
func (a *App) ExportToFile(format string) (string, error) {
	sess, err := a.session()
	if err != nil {
		return "", err
	}

	var artifact *service.ExportArtifact
	switch format {
	case "svg":
		artifact, err = sess.ExportSVG()
	case "png":
		artifact, err = sess.ExportPNG()
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return "", err
	}

	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Export",
		DefaultFilename: artifact.Filename,
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "PNG Image", Pattern: "*.png"},
			{DisplayName: "SVG Image", Pattern: "*.svg"},
		},
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil
	}

	if err := os.WriteFile(path, artifact.Data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// ExportImageToClipboard hands the rendered PNG to the frontend for
// a clipboard write. Platforms without image clipboard support reject
// the call up front.
func (a *App) ExportImageToClipboard() error {
	if !a.detectCapabilities().ClipboardImage {
		return fmt.Errorf("image clipboard not supported on this platform")
	}
	sess, err := a.session()
	if err != nil {
		return err
	}
	artifact, err := sess.ExportClipboardPNG()
	if err != nil {
		return err
	}
	wailsRuntime.EventsEmit(a.ctx, service.EventClipboard, map[string]string{
		"dataUrl": artifact.DataURL(),
	})
	return nil
}
