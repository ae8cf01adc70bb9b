// Package sync keeps both sides of linked files up to date.
//
// The Syncer is the live-synchronization collaborator around the pure
// transformation engine: it watches both sides of every registered
// pair, re-runs the appropriate clone when one side settles after an
// edit, and writes the result atomically. The engine itself stays
// unaware of files, timing and reentrancy.
package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"github.com/weftlabs/weft/internal/link"
	"github.com/weftlabs/weft/internal/link/registry"
	"github.com/weftlabs/weft/internal/watcher"
)

// Syncer owns a set of link pairs and keeps them synchronized.
type Syncer struct {
	log   *slog.Logger
	reg   *registry.Registry
	w     watcher.Watcher
	state *State
	delay time.Duration

	mu stdsync.Mutex
	// links maps each watched path to the configuration whose This
	// side is that path.
	links map[string]*link.Configuration
	// written maps paths to the hash of content this Syncer last
	// wrote there, so our own writes do not trigger clones back.
	written map[string]string

	ownsWatcher bool
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Syncer) {
		s.log = log
	}
}

// WithWatcher injects a watcher, mainly for tests. The Syncer will not
// close an injected watcher.
func WithWatcher(w watcher.Watcher) Option {
	return func(s *Syncer) {
		s.w = w
		s.ownsWatcher = false
	}
}

// WithState sets the persistent state store.
func WithState(st *State) Option {
	return func(s *Syncer) {
		s.state = st
	}
}

// WithDebounce sets the settle window used when the Syncer creates its
// own watcher.
func WithDebounce(d time.Duration) Option {
	return func(s *Syncer) {
		s.delay = d
	}
}

// New creates a Syncer resolving link types through reg.
func New(reg *registry.Registry, opts ...Option) (*Syncer, error) {
	s := &Syncer{
		log:     slog.Default(),
		reg:     reg,
		delay:   150 * time.Millisecond,
		links:   make(map[string]*link.Configuration),
		written: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.w == nil {
		fw, err := watcher.NewFSWatcher()
		if err != nil {
			return nil, err
		}
		s.w = watcher.NewDebounced(fw, s.delay)
		s.ownsWatcher = true
	}
	return s, nil
}

// Add registers a file pair for synchronization. The link type and the
// counterpart path come from the registry; both sides are watched, the
// counterpart only once it exists.
func (s *Syncer) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	cfg, err := s.reg.LookupPath(abs)
	if err != nil {
		return err
	}
	cfg.Log = s.log

	s.mu.Lock()
	s.links[cfg.This] = cfg
	s.links[cfg.That] = cfg.Invert()
	s.mu.Unlock()

	if err := s.w.Watch(cfg.This); err != nil {
		return err
	}
	if err := s.w.Watch(cfg.That); err != nil && err != watcher.ErrPathNotExist {
		return err
	}

	s.log.Info("linked", "link", cfg.Name, "this", cfg.This, "that", cfg.That)
	return nil
}

// CloneOnce runs a single forward clone for path and writes the
// counterpart file. It returns the counterpart path.
func (s *Syncer) CloneOnce(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	cfg := s.links[abs]
	s.mu.Unlock()

	if cfg == nil {
		cfg, err = s.reg.LookupPath(abs)
		if err != nil {
			return "", err
		}
		cfg.Log = s.log
	}
	return cfg.That, s.clone(cfg)
}

// Run processes watcher events until the context is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-s.w.Events():
			if !ok {
				return nil
			}
			s.handle(ev)

		case err, ok := <-s.w.Errors():
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", "error", err)
		}
	}
}

// Close releases the watcher if this Syncer created it.
func (s *Syncer) Close() error {
	if s.ownsWatcher {
		return s.w.Close()
	}
	return nil
}

// handle reacts to one settled file change.
func (s *Syncer) handle(ev watcher.Event) {
	if ev.Op.Has(watcher.OpRemove) && !ev.Op.Has(watcher.OpCreate) && !ev.Op.Has(watcher.OpWrite) {
		s.log.Info("linked file removed, leaving counterpart alone", "path", ev.Path)
		return
	}

	s.mu.Lock()
	cfg := s.links[ev.Path]
	s.mu.Unlock()
	if cfg == nil {
		return
	}

	if err := s.clone(cfg); err != nil {
		s.log.Error("clone failed", "link", cfg.Name, "this", cfg.This, "error", err)
	}
}

// clone reads This, transforms, and atomically replaces That. Writes
// by the Syncer itself are recognized by content hash and skipped, so
// regenerating one side never ping-pongs back.
func (s *Syncer) clone(cfg *link.Configuration) error {
	data, err := os.ReadFile(cfg.This)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.This, err)
	}
	sum := hashContent(data)

	s.mu.Lock()
	echo := s.written[cfg.This] == sum
	s.mu.Unlock()
	if echo {
		s.log.Debug("skipping own write", "path", cfg.This)
		return nil
	}

	out, err := cfg.Clone(string(data))
	if err != nil {
		return err
	}

	existed := true
	if _, err := os.Stat(cfg.That); os.IsNotExist(err) {
		existed = false
	}

	if err := writeFileAtomic(cfg.That, []byte(out)); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.That, err)
	}

	s.mu.Lock()
	s.written[cfg.That] = hashContent([]byte(out))
	s.mu.Unlock()

	if !existed {
		if err := s.w.Watch(cfg.That); err != nil && err != watcher.ErrClosed {
			s.log.Warn("watching generated file", "path", cfg.That, "error", err)
		}
	}

	if s.state != nil {
		entry := Entry{Link: cfg.Name, Hash: sum, Updated: time.Now()}
		if err := s.state.Record(cfg.This, entry); err != nil {
			s.log.Warn("persisting sync state", "error", err)
		}
	}

	s.log.Info("cloned", "link", cfg.Name, "this", cfg.This, "that", cfg.That)
	return nil
}

func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
