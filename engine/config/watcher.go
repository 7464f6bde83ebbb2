package config

import (
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/halcyon-games/prism/engine/core"
)

// Watcher reloads the configuration file when it changes on disk and hands
// the result to a callback. The renderer uses this to stage a live swapchain
// reset; the callback runs on the watcher goroutine, so it must only stage
// state, never touch the device.
type Watcher struct {
	fsnotify *fsnotify.Watcher
	path     string
	done     chan struct{}
	isClosed bool
}

func NewWatcher(path string, onChange func(*App)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsnotify: fsWatch,
		path:     path,
		done:     make(chan struct{}),
	}

	// Watch the directory, not the file: editors replace files on save,
	// which drops a file-level watch.
	if err := fsWatch.Add(filepath.Dir(path)); err != nil {
		fsWatch.Close()
		return nil, err
	}

	go w.run(onChange)
	return w, nil
}

func (w *Watcher) run(onChange func(*App)) {
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != filepath.Clean(w.path) {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogWarn("config reload failed: %s", err)
				continue
			}
			core.LogInfo("config file changed, staging new settings")
			onChange(cfg)
		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogWarn("config watcher error: %s", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) Close() error {
	if w.isClosed {
		return errors.New("config watcher already closed")
	}
	w.isClosed = true
	close(w.done)
	return w.fsnotify.Close()
}
