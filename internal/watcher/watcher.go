// Package watcher watches linked files for external changes.
//
// It wraps fsnotify with the small surface the synchronizer needs:
// watch individual files, coalesce rapid write bursts per path, and
// deliver one debounced event per settled change. Reentrancy guards
// and the decision to re-run a transformation belong to the caller.
package watcher

import (
	"errors"
	"time"
)

// Errors returned by watcher operations.
var (
	ErrClosed       = errors.New("watcher is closed")
	ErrNotWatching  = errors.New("path is not being watched")
	ErrPathNotExist = errors.New("path does not exist")
)

// Op represents the type of file change.
type Op uint32

const (
	// OpCreate indicates the file was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates the file was written to.
	OpWrite
	// OpRemove indicates the file was removed.
	OpRemove
	// OpRename indicates the file was renamed.
	OpRename
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch {
	case op.Has(OpWrite):
		return "WRITE"
	case op.Has(OpCreate):
		return "CREATE"
	case op.Has(OpRemove):
		return "REMOVE"
	case op.Has(OpRename):
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Has reports whether the operation includes o.
func (op Op) Has(o Op) bool { return op&o == o }

// Event is a file change notification.
type Event struct {
	// Path is the absolute path of the changed file.
	Path string
	// Op is the combined operations observed.
	Op Op
	// Timestamp is when the change was observed.
	Timestamp time.Time
}

// Watcher delivers file change events.
type Watcher interface {
	// Watch starts watching a file. Watching an already watched path
	// is a no-op.
	Watch(path string) error

	// Unwatch stops watching a path.
	Unwatch(path string) error

	// Events returns the event channel, closed on Close.
	Events() <-chan Event

	// Errors returns the error channel, closed on Close.
	Errors() <-chan error

	// IsWatching reports whether a path is being watched.
	IsWatching(path string) bool

	// Close stops the watcher and closes both channels.
	Close() error
}

// Config holds watcher options.
type Config struct {
	// DebounceDelay is the settle window for coalescing rapid writes.
	DebounceDelay time.Duration
	// BufferSize is the event and error channel capacity.
	BufferSize int
}

// DefaultConfig returns the default options.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 150 * time.Millisecond,
		BufferSize:    64,
	}
}

// Option configures a watcher.
type Option func(*Config)

// WithDebounceDelay sets the settle window.
func WithDebounceDelay(d time.Duration) Option {
	return func(c *Config) {
		c.DebounceDelay = d
	}
}

// WithBufferSize sets the channel capacity.
func WithBufferSize(n int) Option {
	return func(c *Config) {
		c.BufferSize = n
	}
}
