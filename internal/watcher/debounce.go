package watcher

import (
	"sync"
	"time"
)

// Debounced wraps a Watcher and coalesces rapid changes to the same
// path into a single event delivered after the settle window.
type Debounced struct {
	inner Watcher
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	events  chan Event
	errors  chan error
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

type pendingEvent struct {
	event Event
	timer *time.Timer
	ops   Op
}

// NewDebounced wraps inner with a settle window of delay.
func NewDebounced(inner Watcher, delay time.Duration) *Debounced {
	if delay <= 0 {
		delay = DefaultConfig().DebounceDelay
	}

	d := &Debounced{
		inner:   inner,
		delay:   delay,
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, 64),
		errors:  make(chan error, 64),
		closeCh: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.loop()

	return d
}

// Watch starts watching a file.
func (d *Debounced) Watch(path string) error { return d.inner.Watch(path) }

// Unwatch stops watching a path.
func (d *Debounced) Unwatch(path string) error { return d.inner.Unwatch(path) }

// Events returns the debounced event channel.
func (d *Debounced) Events() <-chan Event { return d.events }

// Errors returns the error channel.
func (d *Debounced) Errors() <-chan error { return d.errors }

// IsWatching reports whether a path is watched.
func (d *Debounced) IsWatching(path string) bool { return d.inner.IsWatching(path) }

// Close stops the wrapper and the inner watcher.
func (d *Debounced) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.closeCh)
	for path, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, path)
	}
	d.mu.Unlock()

	d.wg.Wait()
	close(d.events)
	close(d.errors)
	return d.inner.Close()
}

// Flush fires all pending events immediately.
func (d *Debounced) Flush() {
	d.mu.Lock()
	paths := make([]string, 0, len(d.pending))
	for path, p := range d.pending {
		p.timer.Stop()
		paths = append(paths, path)
	}
	d.mu.Unlock()

	for _, path := range paths {
		d.fire(path)
	}
}

func (d *Debounced) loop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.closeCh:
			return

		case ev, ok := <-d.inner.Events():
			if !ok {
				return
			}
			d.coalesce(ev)

		case err, ok := <-d.inner.Errors():
			if !ok {
				return
			}
			select {
			case d.errors <- err:
			case <-d.closeCh:
			default:
			}
		}
	}
}

// coalesce merges an event into the pending set, resetting the settle
// timer for its path.
func (d *Debounced) coalesce(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if p, ok := d.pending[ev.Path]; ok {
		p.ops |= ev.Op
		p.event.Op = p.ops
		p.event.Timestamp = ev.Timestamp
		p.timer.Reset(d.delay)
		return
	}

	p := &pendingEvent{event: ev, ops: ev.Op}
	p.timer = time.AfterFunc(d.delay, func() {
		d.fire(ev.Path)
	})
	d.pending[ev.Path] = p
}

func (d *Debounced) fire(path string) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	ev := p.event
	d.mu.Unlock()

	select {
	case d.events <- ev:
	case <-d.closeCh:
	default:
	}
}

var _ Watcher = (*Debounced)(nil)
