package program

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// watchedProgram records which files feed which stages of a program.
type watchedProgram struct {
	program Program
	paths   map[Stage]string
}

// Watcher hot-reloads programs whose source files change on disk. File reads happen on the
// watcher goroutine; the Reload itself is handed to enqueue so it runs on the graphics thread
// between frames.
type Watcher struct {
	fs      *fsnotify.Watcher
	enqueue func(op func())
	byPath  map[string][]*watchedProgram
	mu      *sync.Mutex
}

// NewWatcher creates a Watcher that posts reload operations through enqueue.
//
// Parameters:
//   - enqueue: schedules a function on the graphics thread, usually Renderer.Enqueue
//
// Returns:
//   - *Watcher: the watcher, not yet running
//   - error: if the OS file watcher could not be created
func NewWatcher(enqueue func(op func())) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("program: create watcher: %w", err)
	}
	return &Watcher{
		fs:      fw,
		enqueue: enqueue,
		byPath:  make(map[string][]*watchedProgram),
		mu:      &sync.Mutex{},
	}, nil
}

// Watch registers a program's source files. For WGSL programs pass the same path for every
// stage, or only StageVertex.
//
// Parameters:
//   - p: the program to reload
//   - paths: source file per stage
//
// Returns:
//   - error: if a directory could not be watched
func (w *Watcher) Watch(p Program, paths map[Stage]string) error {
	wp := &watchedProgram{program: p, paths: make(map[Stage]string, len(paths))}
	w.mu.Lock()
	defer w.mu.Unlock()
	for stage, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("program: resolve %s: %w", path, err)
		}
		wp.paths[stage] = abs
		// watch the directory so editors that replace files atomically are still seen
		if err := w.fs.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("program: watch %s: %w", abs, err)
		}
		w.byPath[abs] = append(w.byPath[abs], wp)
	}
	return nil
}

// Run processes file events until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	log := common.Logger().Named("program")
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			w.mu.Lock()
			targets := w.byPath[abs]
			w.mu.Unlock()
			for _, wp := range targets {
				w.reload(wp, log)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}

// reload reads every stage file of a program and queues the Reload.
func (w *Watcher) reload(wp *watchedProgram, log *zap.Logger) {
	sources := make(map[Stage]string, len(wp.paths))
	for stage, path := range wp.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("read shader source", zap.String("path", path), zap.Error(err))
			return
		}
		if len(data) == 0 {
			// truncated mid-save; the following write event carries the content
			return
		}
		sources[stage] = string(data)
	}
	if wp.program.Language() == LanguageWGSL {
		if _, ok := sources[StageFragment]; !ok {
			sources[StageFragment] = sources[StageVertex]
		}
	}
	p := wp.program
	w.enqueue(func() {
		if err := p.Reload(sources); err != nil {
			log.Warn("reload program", zap.String("program", p.Name()), zap.Error(err))
			return
		}
		log.Info("reloaded program", zap.String("program", p.Name()), zap.Uint64("revision", p.Revision()))
	})
}

// Close stops the OS watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
