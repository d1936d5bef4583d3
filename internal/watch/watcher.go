// Package watch re-renders open previews when attachment files change
// on disk, e.g. after the user edits an imported image in an external
// editor.
package watch

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangedHandler is called when a watched attachment changes.
type ChangedHandler func(sceneID, fileID string)

type watched struct {
	sceneID string
	fileID  string
}

// Watcher tracks attachment files on disk and reports writes to them.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange ChangedHandler
	mu       sync.RWMutex
	watching map[string]watched // filePath -> attachment
}

// New creates a Watcher and starts its event loop.
func New(onChange ChangedHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		onChange: onChange,
		watching: make(map[string]watched),
	}

	go w.loop()

	return w, nil
}

// WatchFile starts watching an attachment file for changes.
func (w *Watcher) WatchFile(sceneID, fileID, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.watching[absPath] = watched{sceneID: sceneID, fileID: fileID}
	w.mu.Unlock()

	// Watch the directory (fsnotify watches dirs for file events)
	dir := filepath.Dir(absPath)
	return w.watcher.Add(dir)
}

// StopWatching stops watching the given attachment.
func (w *Watcher) StopWatching(fileID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, wt := range w.watching {
		if wt.fileID == fileID {
			delete(w.watching, path)
			break
		}
	}
}

// StopScene stops watching all attachments of a scene.
func (w *Watcher) StopScene(sceneID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, wt := range w.watching {
		if wt.sceneID == sceneID {
			delete(w.watching, path)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				absPath, _ := filepath.Abs(event.Name)
				w.mu.RLock()
				wt, known := w.watching[absPath]
				w.mu.RUnlock()

				if known && w.onChange != nil {
					w.onChange(wt.sceneID, wt.fileID)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)
		}
	}
}
