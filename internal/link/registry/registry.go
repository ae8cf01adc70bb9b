// Package registry maps file extensions to link configurations.
//
// The engine itself never derives file names; this package is the
// collaborator that decides which link type applies to a path and what
// the generated counterpart path is, by swapping extensions. The
// default registry covers the built-in link types; user configuration
// can register additional ones.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/weftlabs/weft/internal/link"
)

// ErrNoLink indicates no link type is registered for an extension.
var ErrNoLink = errors.New("no link registered for extension")

// Factory builds a configuration for a concrete this/that pair.
type Factory func(this, that string) *link.Configuration

// Entry describes one registered link type.
type Entry struct {
	// Name is the link type name, e.g. "el-org".
	Name string
	// FromExt and ToExt are the owning and generated extensions,
	// with leading dots.
	FromExt string
	ToExt   string

	factory Factory
}

// Registry holds extension registrations. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry // keyed by FromExt
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Default returns a registry with the built-in link types: Emacs Lisp
// sources clone to Org through the orgel overlay link, Clojure sources
// through the plain block link, and Org documents clone to Emacs Lisp.
func Default() *Registry {
	r := New()
	r.MustRegister("orgel-org", ".el", ".org", link.NewOrgelOrg)
	r.MustRegister("clojure-org", ".clj", ".org", link.NewClojureOrg)
	r.MustRegister("org-el", ".org", ".el", link.NewOrgEl)
	return r
}

// Register adds a link type for an extension. Registering an extension
// twice replaces the earlier entry only if the names match; otherwise
// it is an error, so user config cannot silently shadow a built-in.
func (r *Registry) Register(name, fromExt, toExt string, factory Factory) error {
	if !strings.HasPrefix(fromExt, ".") || !strings.HasPrefix(toExt, ".") {
		return fmt.Errorf("registering %s: extensions must start with a dot", name)
	}
	if factory == nil {
		return fmt.Errorf("registering %s: nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[fromExt]; ok && existing.Name != name {
		return fmt.Errorf("extension %s already registered to %s", fromExt, existing.Name)
	}
	r.entries[fromExt] = Entry{Name: name, FromExt: fromExt, ToExt: toExt, factory: factory}
	return nil
}

// MustRegister is Register that panics on error, for built-in setup.
func (r *Registry) MustRegister(name, fromExt, toExt string, factory Factory) {
	if err := r.Register(name, fromExt, toExt, factory); err != nil {
		panic(err)
	}
}

// Override replaces any existing registration for an extension.
func (r *Registry) Override(name, fromExt, toExt string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[fromExt] = Entry{Name: name, FromExt: fromExt, ToExt: toExt, factory: factory}
}

// Lookup returns the entry registered for an extension.
func (r *Registry) Lookup(ext string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[ext]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoLink, ext)
	}
	return e, nil
}

// LookupPath builds a ready configuration for a file path: the link
// type comes from the path's extension and the target path is derived
// by swapping it.
func (r *Registry) LookupPath(path string) (*link.Configuration, error) {
	e, err := r.Lookup(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	cfg := e.factory(path, TargetPath(path, e.ToExt))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Entries lists registrations sorted by owning extension.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromExt < out[j].FromExt })
	return out
}

// TargetPath swaps a path's extension for the target extension.
func TargetPath(path, toExt string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + toExt
}
