package daemon

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	doterrors "github.com/MathieuDuponchelle/better-doctool/internal/errors"
	"github.com/MathieuDuponchelle/better-doctool/internal/logfields"
)

// watcher wraps fsnotify with recursive directory registration. fsnotify
// watches single directories only, so every subdirectory is added
// explicitly and newly created directories are picked up from events.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
}

func newWatcher(roots []string, logger *slog.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, doterrors.Wrap(err, doterrors.CategoryFileSystem, doterrors.SeverityFatal,
			"create filesystem watcher")
	}
	w := &watcher{fsw: fsw, logger: logger}
	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return doterrors.FatalIO(err, path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return doterrors.FatalIO(err, path)
		}
		w.logger.Debug("Watching directory", logfields.Path(path))
		return nil
	})
}

// relevant filters events down to ones that can affect a build: writes,
// creations, removals and renames of visible files.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	// New directories join the watch set immediately so files created
	// inside them are seen.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("Cannot watch new directory",
					logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}
	return true
}

func (w *watcher) events() <-chan fsnotify.Event { return w.fsw.Events }
func (w *watcher) errors() <-chan error          { return w.fsw.Errors }
func (w *watcher) close() error                  { return w.fsw.Close() }
