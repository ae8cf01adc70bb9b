// Package script loads user-defined line rules written in Lua.
//
// A rule script defines two global functions:
//
//	function forward(line) ... return line end
//	function reverse(line) ... return line end
//
// forward rewrites single lines in the doc-to-source direction and
// reverse undoes it. Returning nil (or the line unchanged) keeps the
// line; returning a different string replaces it. A replacement must
// stay a single line so the engine's line-count invariant holds.
//
// Scripts run in a restricted state: only the base, table, string and
// math libraries are open, and the load family of functions is removed.
// The io, os, debug and package libraries are never opened.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Default limits for script execution.
const (
	DefaultCallTimeout = 2 * time.Second
)

// Errors returned by script operations.
var (
	ErrClosed          = errors.New("rule script is closed")
	ErrMissingFunction = errors.New("rule script must define forward and reverse functions")
)

// Rules holds a loaded rule script. The underlying Lua state is not
// goroutine-safe; a mutex serializes calls.
type Rules struct {
	mu      sync.Mutex
	L       *lua.LState
	source  string
	forward *lua.LFunction
	reverse *lua.LFunction
	timeout time.Duration
	closed  bool
}

// Option configures script loading.
type Option func(*Rules)

// WithCallTimeout bounds a single rule invocation. Best effort: Lua
// code is interrupted at the next instruction boundary.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Rules) {
		r.timeout = d
	}
}

// LoadFile loads a rule script from a file.
func LoadFile(path string, opts ...Option) (*Rules, error) {
	return load(path, func(L *lua.LState) error { return L.DoFile(path) }, opts)
}

// LoadString loads a rule script from source text.
func LoadString(code string, opts ...Option) (*Rules, error) {
	return load("<string>", func(L *lua.LState) error { return L.DoString(code) }, opts)
}

func load(source string, run func(*lua.LState) error, opts []Option) (*Rules, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	installRestrictions(L)

	r := &Rules{L: L, source: source, timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(r)
	}

	if err := run(L); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading rule script %s: %w", source, err)
	}

	fwd, fok := L.GetGlobal("forward").(*lua.LFunction)
	rev, rok := L.GetGlobal("reverse").(*lua.LFunction)
	if !fok || !rok {
		L.Close()
		return nil, fmt.Errorf("%s: %w", source, ErrMissingFunction)
	}
	r.forward = fwd
	r.reverse = rev
	return r, nil
}

// openSafeLibraries opens only side-effect-free standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installRestrictions removes the load family so scripts cannot smuggle
// in code past the restricted environment.
func installRestrictions(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Source returns where the script was loaded from.
func (r *Rules) Source() string { return r.source }

// Close releases the Lua state.
func (r *Rules) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}

// apply runs one rule function over a single line.
func (r *Rules) apply(fn *lua.LFunction, line string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(line)); err != nil {
		return "", fmt.Errorf("rule script %s: %w", r.source, err)
	}
	ret := r.L.Get(-1)
	r.L.Pop(1)

	switch v := ret.(type) {
	case lua.LString:
		out := string(v)
		if strings.ContainsRune(out, '\n') {
			return "", fmt.Errorf("rule script %s: replacement must not span lines", r.source)
		}
		return out, nil
	case *lua.LNilType:
		return line, nil
	default:
		return "", fmt.Errorf("rule script %s: rule returned %s, want string or nil", r.source, ret.Type())
	}
}

// Forward applies the forward rule to one line.
func (r *Rules) Forward(line string) (string, error) {
	return r.apply(r.forward, line)
}

// Reverse applies the reverse rule to one line.
func (r *Rules) Reverse(line string) (string, error) {
	return r.apply(r.reverse, line)
}
