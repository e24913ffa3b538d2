package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce lets an editor finish writing before the file is read.
const debounce = 100 * time.Millisecond

// StartWatching rewrites .go files under dirs whenever they are written.
// Each outcome is passed to report.
func (e *Engine) StartWatching(dirs []string, report func(Result, error)) error {
	if e.isWatching {
		return errors.New("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	for _, dir := range dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
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
	e.watchDirs = dirs
	e.done = make(chan struct{})
	e.isWatching = true
	go e.watchLoop(report)
	return nil
}

func (e *Engine) StopWatching() error {
	if !e.isWatching {
		return errors.New("not watching")
	}

	e.isWatching = false
	close(e.done)
	return e.watcher.Close()
}

func (e *Engine) watchLoop(report func(Result, error)) {
	for {
		select {
		case <-e.done:
			return
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(event, report)
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(event fsnotify.Event, report func(Result, error)) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !strings.HasSuffix(event.Name, ".go") || e.IsOutput(event.Name) {
		return
	}

	// consider a burst of writes as one change
	time.Sleep(debounce)
	res, err := e.Run(event.Name)
	if report != nil {
		report(res, err)
	}
}
