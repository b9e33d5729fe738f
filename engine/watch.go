package engine

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay lets a burst of writes to one file land before it is re-read.
const settleDelay = 100 * time.Millisecond

// StartWatching re-solves fixtures under dirs whenever one is written and
// hands each outcome to onResult, which is called from the watcher's
// goroutine.
func (e *Engine) StartWatching(dirs []string, onResult func(*Result, error)) error {
	if e.isWatching.Load() {
		return fmt.Errorf("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	e.watcher = watcher
	e.onResult = onResult
	e.isWatching.Store(true)
	go e.watchLoop()
	return nil
}

func (e *Engine) StopWatching() error {
	if !e.isWatching.Swap(false) {
		e.logger.Warn("not watching")
		return nil
	}
	return e.watcher.Close()
}

func (e *Engine) watchLoop() {
	for e.isWatching.Load() {
		select {
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(event)
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) || !hasDesiredExtension(event.Name) {
		return
	}
	time.Sleep(settleDelay)
	result, err := e.Run(event.Name)
	if err != nil {
		e.logger.Error("Error processing file", zap.String("file", event.Name), zap.Error(err))
	}
	if e.onResult != nil {
		e.onResult(result, err)
	}
}
