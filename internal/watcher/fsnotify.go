package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FSWatcher implements Watcher on top of fsnotify.
//
// Files are watched through their parent directories: editors that
// save via rename (write temp file, rename over the original) drop the
// inode-level watch, while directory watches survive and report the
// rename as a create of the watched name.
type FSWatcher struct {
	mu sync.Mutex

	fs     *fsnotify.Watcher
	config Config

	// files maps watched file paths to their parent directory.
	files map[string]string
	// dirs counts watched files per parent directory.
	dirs map[string]int

	events chan Event
	errors chan error

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewFSWatcher creates an fsnotify-backed watcher.
func NewFSWatcher(opts ...Option) (*FSWatcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FSWatcher{
		fs:      fs,
		config:  config,
		files:   make(map[string]string),
		dirs:    make(map[string]int),
		events:  make(chan Event, config.BufferSize),
		errors:  make(chan error, config.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Watch starts watching a file.
func (w *FSWatcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, ok := w.files[abs]; ok {
		return nil
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = dir
	return nil
}

// Unwatch stops watching a file.
func (w *FSWatcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir, ok := w.files[abs]
	if !ok {
		return ErrNotWatching
	}
	delete(w.files, abs)
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		return w.fs.Remove(dir)
	}
	return nil
}

// Events returns the event channel.
func (w *FSWatcher) Events() <-chan Event { return w.events }

// Errors returns the error channel.
func (w *FSWatcher) Errors() <-chan error { return w.errors }

// IsWatching reports whether path is watched.
func (w *FSWatcher) IsWatching(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[abs]
	return ok
}

// Close stops the watcher.
func (w *FSWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fs.Close()
}

// loop forwards fsnotify events for watched files.
func (w *FSWatcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *FSWatcher) handle(ev fsnotify.Event) {
	op := convertOp(ev.Op)
	if op == 0 {
		return
	}

	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	_, watched := w.files[abs]
	w.mu.Unlock()
	if !watched {
		return
	}

	select {
	case w.events <- Event{Path: abs, Op: op, Timestamp: time.Now()}:
	default:
		// Channel full, drop. The debounce layer collapses bursts
		// before this matters in practice.
	}
}

func (w *FSWatcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

// convertOp maps fsnotify operations onto ours. Chmod-only events are
// dropped; they do not change content.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}

var _ Watcher = (*FSWatcher)(nil)
