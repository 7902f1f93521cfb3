// Package watcher reports changes to the PHP files of a project so that the
// index can be brought up to date while sources are edited.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/phpdoc-mcp/internal/indexer"
	"github.com/dshills/phpdoc-mcp/internal/observability"
)

// ErrNoCallback is returned by New without a change callback
var ErrNoCallback = errors.New("watcher needs a change callback")

// Watcher watches a project root recursively. Events are debounced and
// onChange receives the sorted relative paths of one burst; calls are
// serialized.
type Watcher struct {
	root     string
	includes []string
	excludes []string
	debounce time.Duration
	onChange func([]string)
	logger   *slog.Logger

	fsWatcher *fsnotify.Watcher
	dirs      map[string]bool // watched directories, owned by Run
	ready     chan struct{}

	callbackMu sync.Mutex
	pendingMu  sync.Mutex
	pending    map[string]struct{}
	timer      *time.Timer
}

// New creates a watcher for root using the include/exclude globs of
// indexer.Discover. Nothing is watched until Run is called.
func New(root string, includes, excludes []string, debounce time.Duration, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, ErrNoCallback
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	return &Watcher{
		root:     root,
		includes: includes,
		excludes: excludes,
		debounce: debounce,
		onChange: onChange,
		logger:   slog.Default(),
		dirs:     make(map[string]bool),
		ready:    make(chan struct{}),
		pending:  make(map[string]struct{}),
	}, nil
}

// SetLogger sets the logger used for watch errors
func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// Ready is closed once the initial directory tree is being watched
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches the project until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fsWatcher = fsw
	defer func() {
		w.stopTimer()
		_ = fsw.Close()
	}()

	if err := w.watchTree(w.root, false); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			observability.WatchEventsTotal.Inc()
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if indexer.ExcludedDir(rel, w.excludes) {
			return
		}
		// files may land before the new watch does
		if err := w.watchTree(event.Name, true); err != nil {
			w.logger.Warn("failed to watch new directory", "path", rel, "error", err)
		}
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if w.dirs[event.Name] {
			delete(w.dirs, event.Name)
			w.schedule(rel)
			return
		}
	}

	if !indexer.Included(rel, w.includes, w.excludes) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.schedule(rel)
	}
}

// watchTree adds dir and its non-excluded subdirectories. With enqueue set,
// the included files found are reported as changed.
func (w *Watcher) watchTree(dir string, enqueue bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, ok := w.relative(path)
		if d.IsDir() {
			if ok && indexer.ExcludedDir(rel, w.excludes) {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				return err
			}
			w.dirs[path] = true
			return nil
		}
		if enqueue && ok && d.Type().IsRegular() && indexer.Included(rel, w.includes, w.excludes) {
			w.schedule(rel)
		}
		return nil
	})
}

func (w *Watcher) schedule(rel string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[rel] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) stopTimer() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// relative returns the slash-separated path below root; the root itself
// and paths outside it report false
func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
