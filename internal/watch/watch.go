// Package watch rebuilds a project whenever its sources change.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/modbuilder/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build. Its error is logged; watching continues.
type BuildFunc func(ctx context.Context) error

// Options configures a watch session.
type Options struct {
	Root string
	// Ignore lists directories whose changes never trigger a rebuild, such as
	// the output directory.
	Ignore   []string
	Debounce time.Duration
	Build    BuildFunc
	// Ready, when set, is closed after the initial build once the watcher is
	// subscribed.
	Ready chan<- struct{}
}

// Run builds once, then rebuilds after every burst of changes below Root
// until ctx is canceled.
func Run(ctx context.Context, opts Options) error {
	if opts.Build == nil {
		return errors.InternalError("watch requires a build function").Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid project path").Fatal().Build()
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			ignore = append(ignore, abs)
		}
	}
	s := &session{root: root, ignore: ignore, build: opts.Build}

	s.rebuild(ctx, "initial")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryResource, "cannot start file watcher").Fatal().Build()
	}
	defer func() { _ = watcher.Close() }()
	s.addDirsRecursive(watcher, root)
	slog.Info("Watching for changes", logfields.Path(root))
	if opts.Ready != nil {
		close(opts.Ready)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.handleEvent(watcher, ev) {
				continue
			}
			timer.Reset(opts.Debounce)
			timerC = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-timerC:
			timerC = nil
			s.rebuild(ctx, "change")
		}
	}
}

type session struct {
	root   string
	ignore []string
	build  BuildFunc
	builds int
}

func (s *session) rebuild(ctx context.Context, reason string) {
	s.builds++
	start := time.Now()
	slog.Info("Rebuilding", slog.String("reason", reason), logfields.Count(s.builds))
	if err := s.build(ctx); err != nil {
		slog.Warn("Rebuild failed", logfields.Error(err))
		return
	}
	slog.Info("Rebuild complete", logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
}

// handleEvent reports whether ev should trigger a rebuild. New directories
// are added to the watch.
func (s *session) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) bool {
	if s.ignored(ev.Name) || shouldIgnoreEvent(ev.Name) {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			s.addDirsRecursive(w, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (s *session) ignored(path string) bool {
	for _, dir := range s.ignore {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (s *session) addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != s.root && (strings.HasPrefix(d.Name(), ".") || s.ignored(path)) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for files that never affect the build:
// hidden files, editor swap files and OS metadata.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
