// Package buffer provides named mutable text containers for the engine.
//
// A Buffer pairs a name (and optionally a backing file path) with text
// content. Content is only ever replaced wholesale: a transformation
// either produces a complete rewrite that becomes the new content, or
// fails and leaves the buffer untouched. There is no incremental edit
// surface, which rules out partial-write states entirely.
package buffer

import (
	"sync"
	"time"

	"github.com/weftlabs/weft/internal/engine"
)

// Buffer is a named text container. All methods are safe for
// concurrent use.
type Buffer struct {
	mu       sync.RWMutex
	name     string
	path     string
	text     string
	revision uint64
	modified time.Time
}

// Option configures a new Buffer.
type Option func(*Buffer)

// WithPath associates a backing file path.
func WithPath(path string) Option {
	return func(b *Buffer) {
		b.path = path
	}
}

// WithText sets the initial content.
func WithText(text string) Option {
	return func(b *Buffer) {
		b.text = text
	}
}

// New creates a buffer with the given name.
func New(name string, opts ...Option) *Buffer {
	b := &Buffer{name: name, modified: time.Now()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the buffer name.
func (b *Buffer) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

// Path returns the backing file path, or "" for an unbacked buffer.
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Text returns the current content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// SetText replaces the content wholesale and bumps the revision.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.revision++
	b.modified = time.Now()
}

// Lines returns the content split into lines without terminators.
func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lines, _ := engine.SplitLines(b.text)
	return lines
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	return len(b.Lines())
}

// Revision returns the current revision counter. It increments on
// every SetText, letting callers detect staleness cheaply.
func (b *Buffer) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// Snapshot is an immutable view of buffer content at a point in time.
type Snapshot struct {
	Name     string
	Text     string
	Revision uint64
	Taken    time.Time
}

// Snapshot captures the current content and revision.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{
		Name:     b.name,
		Text:     b.text,
		Revision: b.revision,
		Taken:    time.Now(),
	}
}
