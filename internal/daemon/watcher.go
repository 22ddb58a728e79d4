package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/imgstack/internal/logfields"
	"git.home.luguber.info/inful/imgstack/internal/metrics"
	"git.home.luguber.info/inful/imgstack/internal/vault"
)

// Watcher keeps the index current by following filesystem events under the
// vault root. Events are debounced per note so editor save bursts trigger a
// single rescan.
type Watcher struct {
	vault    *vault.Vault
	index    *Index
	recorder metrics.Recorder
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	pending  map[string]*time.Timer
	stopChan chan struct{}
}

// NewWatcher creates a watcher over the vault's directory tree.
func NewWatcher(v *vault.Vault, ix *Index, rec metrics.Recorder, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		vault:    v,
		index:    ix,
		recorder: rec,
		watcher:  fsw,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		stopChan: make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins the event loop.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.vault.Root()); err != nil {
		return err
	}
	slog.Info("Starting vault watcher", logfields.Vault(w.vault.Root()))
	go w.loop(ctx)
	return nil
}

// Stop terminates the event loop and releases the watcher.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	return w.watcher.Close()
}

// addTree watches root and every non-hidden subdirectory; fsnotify is not
// recursive on its own.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Vault watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.vault.Root(), event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}

	// New directories must be added to the watch set before their content
	// produces events.
	if event.Op.Has(fsnotify.Create) {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.File(rel), logfields.Error(err))
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".md") {
		return
	}

	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.index.Remove(rel)
		w.recorder.SetIndexSize(w.index.Len())
		return
	}
	if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
		w.schedule(rel)
	}
}

// schedule queues a debounced rescan of one note.
func (w *Watcher) schedule(rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[rel]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[rel] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, rel)
		w.mu.Unlock()

		w.index.ScanNote(w.vault, rel)
		w.recorder.SetIndexSize(w.index.Len())
		slog.Debug("Reindexed note", logfields.File(rel))
	})
}
