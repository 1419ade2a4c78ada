package watch

import (
	"path/filepath"
	"sync"
	"time"

	apperrors "xrayphasemap/internal/errors"
	"xrayphasemap/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Change is an on-disk event for the watched file.
type Change struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Watcher follows a single file. It watches the parent directory so that
// editors which replace the file by rename are still seen.
type Watcher struct {
	// File being watched, empty when idle
	path string
	dir  string

	// Channel to receive changes
	changes chan Change

	// Channel to signal stop
	stopChan chan struct{}

	// Closed when the event loop has returned
	done chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
	stopped bool
}

// New creates a watcher using fsnotify
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create fsnotify watcher")
	}

	return &Watcher{
		changes:   make(chan Change, 10),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		fsWatcher: fsWatcher,
	}, nil
}

// Watch switches the watcher to path. An empty path stops following any file.
func (w *Watcher) Watch(path string) error {
	var abs, dir string
	if path != "" {
		var err error
		abs, err = filepath.Abs(path)
		if err != nil {
			return apperrors.Wrapf(err, "resolve %s", path)
		}
		dir = filepath.Dir(abs)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if dir == w.dir {
		w.path = abs
		return nil
	}
	if w.dir != "" {
		if err := w.fsWatcher.Remove(w.dir); err != nil {
			log.LogWithFields(log.F("directory", w.dir), log.F("error", err)).Warn("Failed to remove watch")
		}
	}
	w.path, w.dir = "", ""
	if dir == "" {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return apperrors.Wrapf(err, "failed to add directory %s to watcher", dir)
	}
	w.path, w.dir = abs, dir
	log.LogWithFields(log.F("file", abs)).Debug("Watching file")
	return nil
}

// Path returns the watched file, or "".
func (w *Watcher) Path() string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.path
}

// Changes returns the channel that delivers changes to the watched file
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins the event loop
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return apperrors.New("watcher already running")
	}
	if w.stopped {
		w.mutex.Unlock()
		return apperrors.New("watcher stopped")
	}
	w.running = true
	w.mutex.Unlock()

	go func() {
		defer close(w.done)
		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
					!event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Remove) {
					continue
				}
				if filepath.Clean(event.Name) != w.Path() {
					continue
				}

				change := Change{
					Path:      event.Name,
					Op:        event.Op,
					Timestamp: time.Now(),
				}

				// Send non-blockingly so a slow consumer never stalls fsnotify
				select {
				case w.changes <- change:
				default:
					log.LogWithFields(log.F("file", event.Name)).Warn("Change channel is full, dropped event")
				}

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

			case <-w.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop halts the watcher and, once the event loop has returned, closes the
// change channel
func (w *Watcher) Stop() {
	w.mutex.Lock()
	running := w.running
	w.running = false
	w.stopped = true
	w.mutex.Unlock()

	if running {
		close(w.stopChan)
	}
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	if running {
		<-w.done
		close(w.changes)
	}
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}
