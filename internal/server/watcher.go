package server

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the template registry when template files change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	onReload func()
	done     chan struct{}
}

// NewWatcher creates a watcher over a template directory.
func NewWatcher(dir string, onReload func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return &Watcher{
		watcher:  fsWatcher,
		dir:      dir,
		onReload: onReload,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Editors write files in bursts (temp file, write,
// rename), so reloads are debounced to the trailing edge of a burst.
func (w *Watcher) Start() {
	go func() {
		var pending *time.Timer
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				ext := filepath.Ext(event.Name)
				if ext != ".yaml" && ext != ".yml" {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(200*time.Millisecond, w.onReload)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[Watch] error: %v", err)

			case <-w.done:
				if pending != nil {
					pending.Stop()
				}
				return
			}
		}
	}()
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
