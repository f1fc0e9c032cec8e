package rewrite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-runs the rewriter on files as they change and reports the
// rewrites that would apply. Nothing is written back; a watch session is
// a live dry run.
type Watcher struct {
	engine    RewriteEngine
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	watchDirs []string
	watching  bool
}

func NewWatcher(engine RewriteEngine, dirs []string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	return &Watcher{
		engine:    engine,
		logger:    logger,
		watcher:   fw,
		watchDirs: dirs,
	}, nil
}

func (w *Watcher) StartWatching() error {
	if w.watching {
		return fmt.Errorf("already watching")
	}

	for _, dir := range w.watchDirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return w.watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	w.watching = true
	go w.watchLoop()
	return nil
}

func (w *Watcher) StopWatching() error {
	if !w.watching {
		w.logger.Warn("not watching")
	}

	w.watching = false
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for w.watching {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Write != fsnotify.Write {
		return
	}
	if !strings.HasSuffix(event.Name, ".go") {
		return
	}
	// wait for a while after file change to consider multiple changes as one
	time.Sleep(100 * time.Millisecond)
	result, err := ProcessFile(w.engine, event.Name)
	if err != nil {
		w.logger.Error("error processing file", zap.String("file", event.Name), zap.Error(err))
		return
	}
	w.reportChanges(result)
}

func (w *Watcher) reportChanges(result Result) {
	if !result.Changed {
		w.logger.Info("no rewrites pending", zap.String("file", result.Filename))
		return
	}
	w.logger.Info("rewrites pending",
		zap.String("file", result.Filename), zap.Int("count", len(result.Changes)))
	for _, change := range result.Changes {
		w.logger.Info("pending rewrite",
			zap.String("rule", change.Rule),
			zap.Int("line", change.Start.Line),
			zap.String("message", change.Message))
	}
}
