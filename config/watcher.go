package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/thiagokokada/barsync/jitter"
	"github.com/thiagokokada/barsync/logging"
)

// Watcher keeps the configuration loaded from a file current, reloading it
// whenever the file changes. Invalid files are logged and ignored.
type Watcher struct {
	path    string
	current atomic.Pointer[Config]
	watcher *fsnotify.Watcher
	logger  *logrus.Entry

	mu       sync.Mutex
	onReload []func(*Config)
}

// NewWatcher loads the file at path and starts watching its directory.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    filepath.Clean(path),
		watcher: watcher,
		logger:  logging.NewLogger("config"),
	}
	w.current.Store(cfg)

	// Editors usually replace the file, so watch the directory instead
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		w.logger.WithError(err).Warnf("Not watching %s for changes", w.path)
	}

	return w, nil
}

// Current returns the last valid configuration.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// PollingRate returns the device polling policy of the current
// configuration.
func (w *Watcher) PollingRate() jitter.Policy {
	policy, err := w.Current().OpenRazer.PollingRate.Policy()
	if err != nil {
		// Only validated configs are stored
		panic(err)
	}
	return policy
}

// OnReload registers a callback run after every successful reload.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = append(w.onReload, fn)
}

// Start processes file events until ctx is done.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.Reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Watcher error")
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// Reload reads the file again. On error the previous configuration is kept.
// A missing file is skipped: editors that save by renaming the old file
// away create the new one right after.
func (w *Watcher) Reload() {
	if _, err := os.Stat(w.path); errors.Is(err, fs.ErrNotExist) {
		w.logger.Debugf("Config file %s is gone, waiting for it to be created", w.path)
		return
	}
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.WithError(err).Error("Failed to reload config, keeping the previous one")
		return
	}
	w.current.Store(cfg)
	w.logger.Infof("Config reloaded: %s", filepath.Base(w.path))

	w.mu.Lock()
	callbacks := append(([]func(*Config))(nil), w.onReload...)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
