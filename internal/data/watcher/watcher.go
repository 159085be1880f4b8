package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Intrinsec/mactime/internal/util"
)

// FileEvent is a change notification for the watched file.
type FileEvent struct {
	Path      string
	Operation string
}

// FileWatcher reports writes to a single file. The parent directory is
// watched so that a file replaced by rename or re-creation keeps being seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	target  string
	events  chan FileEvent
}

func NewFileWatcher(path string) (*FileWatcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(target); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		target:  target,
		events:  make(chan FileEvent, 100),
	}

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	// Start event processing
	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != fw.target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			select {
			case fw.events <- FileEvent{Path: event.Name, Operation: event.Op.String()}:
			default:
				// A change is already pending
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// Log error but continue running
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

func (fw *FileWatcher) Events() <-chan FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}

// Run calls fn each time the file settles after a change, until ctx is
// done. Changes closer together than quiet are coalesced into one call.
func (fw *FileWatcher) Run(ctx context.Context, quiet time.Duration, fn func()) {
	timer := time.NewTimer(quiet)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-fw.events:
			if !ok {
				return
			}
			util.LogDebugf("Bodyfile changed: %s (%s)", ev.Path, ev.Operation)
			timer.Reset(quiet)

		case <-timer.C:
			fn()
		}
	}
}
