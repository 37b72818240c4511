package filewatcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// FsWatcher wraps fsnotify for single-file monitoring. fsnotify only
// watches directories reliably across editors (rename-and-replace saves),
// so the parent directory is watched and events are filtered by path.
// Bursts of write events are debounced before delivery.
type FsWatcher struct {
	watcher      *fsnotify.Watcher
	events       chan outbound.FileChangeEvent
	errors       chan error
	debounce     time.Duration
	debouncers   map[string]*time.Timer
	watchedFiles map[string]bool
	watchedDirs  map[string]bool
	mu           sync.Mutex
	done         chan struct{}
	closed       chan struct{}
}

func NewFSWatcher() (outbound.FileWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FsWatcher{
		watcher:      fsWatcher,
		events:       make(chan outbound.FileChangeEvent, 100),
		errors:       make(chan error, 10),
		debounce:     200 * time.Millisecond,
		debouncers:   make(map[string]*time.Timer),
		watchedFiles: make(map[string]bool),
		watchedDirs:  make(map[string]bool),
		done:         make(chan struct{}),
		closed:       make(chan struct{}),
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FsWatcher) Watch(path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	fw.watchedFiles[absPath] = true

	dir := filepath.Dir(absPath)
	if fw.watchedDirs[dir] {
		return nil
	}

	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	fw.watchedDirs[dir] = true

	return nil
}

func (fw *FsWatcher) Stop() error {
	fw.mu.Lock()
	for _, timer := range fw.debouncers {
		timer.Stop()
	}
	fw.debouncers = make(map[string]*time.Timer)
	fw.mu.Unlock()

	close(fw.done)

	if err := fw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close fsnotify watcher: %w", err)
	}

	<-fw.closed
	close(fw.events)
	close(fw.errors)

	return nil
}

func (fw *FsWatcher) Events() <-chan outbound.FileChangeEvent {
	return fw.events
}

func (fw *FsWatcher) Errors() <-chan error {
	return fw.errors
}

func (fw *FsWatcher) processEvents() {
	defer close(fw.closed)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case fw.errors <- err:
			default:
			}

		case <-fw.done:
			return
		}
	}
}

func (fw *FsWatcher) handleFsEvent(event fsnotify.Event) {
	absPath, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}

	fw.mu.Lock()
	watched := fw.watchedFiles[absPath]
	fw.mu.Unlock()
	if !watched {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&(fsnotify.Write|fsnotify.Rename) != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	default:
		return
	}

	fw.deliverDebounced(absPath, eventType)
}

// deliverDebounced collapses event bursts (editors emit several writes per
// save) into a single delivery after a quiet period.
func (fw *FsWatcher) deliverDebounced(path, eventType string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if timer, exists := fw.debouncers[path]; exists {
		timer.Stop()
	}

	fw.debouncers[path] = time.AfterFunc(fw.debounce, func() {
		select {
		case fw.events <- outbound.FileChangeEvent{FilePath: path, EventType: eventType}:
		case <-fw.done:
		}

		fw.mu.Lock()
		delete(fw.debouncers, path)
		fw.mu.Unlock()
	})
}
