package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/weftlabs/weft/internal/link/registry"
	"github.com/weftlabs/weft/internal/watcher"
)

// fakeWatcher drives the syncer without touching the file system
// notification layer.
type fakeWatcher struct {
	events  chan watcher.Event
	errors  chan error
	watched map[string]bool
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		events:  make(chan watcher.Event, 16),
		errors:  make(chan error, 16),
		watched: make(map[string]bool),
	}
}

func (f *fakeWatcher) Watch(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return watcher.ErrPathNotExist
	}
	f.watched[path] = true
	return nil
}

func (f *fakeWatcher) Unwatch(path string) error {
	delete(f.watched, path)
	return nil
}

func (f *fakeWatcher) Events() <-chan watcher.Event { return f.events }
func (f *fakeWatcher) Errors() <-chan error         { return f.errors }
func (f *fakeWatcher) IsWatching(path string) bool  { return f.watched[path] }
func (f *fakeWatcher) Close() error                 { return nil }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func newSyncer(t *testing.T, fw *fakeWatcher) *Syncer {
	t.Helper()
	s, err := New(registry.Default(), WithWatcher(fw))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestCloneOnce(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.org")
	writeFile(t, doc, "prose\n#+BEGIN_SRC emacs-lisp\n(foo)\n#+END_SRC\n")

	s := newSyncer(t, newFakeWatcher())

	that, err := s.CloneOnce(doc)
	if err != nil {
		t.Fatalf("CloneOnce: %v", err)
	}
	if that != filepath.Join(dir, "notes.el") {
		t.Errorf("unexpected counterpart path %s", that)
	}

	want := ";; prose\n#+BEGIN_SRC emacs-lisp\n(foo)\n#+END_SRC\n"
	if got := readFile(t, that); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCloneOnceUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "x")

	s := newSyncer(t, newFakeWatcher())

	if _, err := s.CloneOnce(path); err == nil {
		t.Error("expected error for unlinked extension")
	}
}

func TestAddWatchesBothSides(t *testing.T) {
	dir := t.TempDir()
	el := filepath.Join(dir, "lib.el")
	org := filepath.Join(dir, "lib.org")
	writeFile(t, el, ";; x")
	writeFile(t, org, "x")

	fw := newFakeWatcher()
	s := newSyncer(t, fw)

	if err := s.Add(el); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !fw.watched[el] || !fw.watched[org] {
		t.Errorf("expected both sides watched, got %v", fw.watched)
	}
}

func TestAddMissingCounterpartTolerated(t *testing.T) {
	dir := t.TempDir()
	el := filepath.Join(dir, "solo.el")
	writeFile(t, el, ";; x")

	fw := newFakeWatcher()
	s := newSyncer(t, fw)

	if err := s.Add(el); err != nil {
		t.Fatalf("Add should tolerate a missing counterpart: %v", err)
	}
	if !fw.watched[el] {
		t.Error("owning side should be watched")
	}
}

func runSyncer(t *testing.T, s *Syncer) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("syncer did not stop")
		}
	})
	return cancel
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestEventTriggersClone(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.org")
	src := filepath.Join(dir, "notes.el")
	writeFile(t, doc, "prose line\n")

	fw := newFakeWatcher()
	s := newSyncer(t, fw)
	if err := s.Add(doc); err != nil {
		t.Fatalf("Add: %v", err)
	}

	runSyncer(t, s)

	fw.events <- watcher.Event{Path: doc, Op: watcher.OpWrite, Timestamp: time.Now()}

	if !waitFor(t, 3*time.Second, func() bool {
		_, err := os.Stat(src)
		return err == nil
	}) {
		t.Fatal("counterpart was never written")
	}
	if got := readFile(t, src); got != ";; prose line\n" {
		t.Errorf("unexpected counterpart content %q", got)
	}
}

func TestReverseEventUsesInvertedLink(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.org")
	src := filepath.Join(dir, "notes.el")
	writeFile(t, doc, "stale\n")
	writeFile(t, src, ";; edited on the source side\n")

	fw := newFakeWatcher()
	s := newSyncer(t, fw)
	if err := s.Add(doc); err != nil {
		t.Fatalf("Add: %v", err)
	}

	runSyncer(t, s)

	fw.events <- watcher.Event{Path: src, Op: watcher.OpWrite, Timestamp: time.Now()}

	if !waitFor(t, 3*time.Second, func() bool {
		return readFile(t, doc) == "edited on the source side\n"
	}) {
		t.Errorf("doc side not regenerated, content %q", readFile(t, doc))
	}
}

func TestOwnWriteDoesNotPingPong(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.org")
	src := filepath.Join(dir, "notes.el")
	writeFile(t, doc, "prose\n")

	fw := newFakeWatcher()
	s := newSyncer(t, fw)
	if err := s.Add(doc); err != nil {
		t.Fatalf("Add: %v", err)
	}

	runSyncer(t, s)

	fw.events <- watcher.Event{Path: doc, Op: watcher.OpWrite, Timestamp: time.Now()}
	if !waitFor(t, 3*time.Second, func() bool {
		_, err := os.Stat(src)
		return err == nil
	}) {
		t.Fatal("counterpart was never written")
	}
	docBefore := readFile(t, doc)

	// The write to notes.el above would surface as a watcher event in
	// a real run. It must be recognized as our own and not cloned back.
	fw.events <- watcher.Event{Path: src, Op: watcher.OpWrite, Timestamp: time.Now()}
	time.Sleep(200 * time.Millisecond)

	if got := readFile(t, doc); got != docBefore {
		t.Errorf("own write echoed back into the doc side: %q", got)
	}
}

func TestRemoveEventLeavesCounterpart(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.org")
	src := filepath.Join(dir, "notes.el")
	writeFile(t, doc, "prose\n")
	writeFile(t, src, ";; prose\n")

	fw := newFakeWatcher()
	s := newSyncer(t, fw)
	if err := s.Add(doc); err != nil {
		t.Fatalf("Add: %v", err)
	}

	runSyncer(t, s)

	if err := os.Remove(doc); err != nil {
		t.Fatal(err)
	}
	fw.events <- watcher.Event{Path: doc, Op: watcher.OpRemove, Timestamp: time.Now()}
	time.Sleep(200 * time.Millisecond)

	if got := readFile(t, src); got != ";; prose\n" {
		t.Errorf("counterpart touched after removal: %q", got)
	}
}

func TestStateRecorded(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.org")
	writeFile(t, doc, "prose\n")

	st := OpenState(filepath.Join(dir, "state.json"))
	s, err := New(registry.Default(), WithWatcher(newFakeWatcher()), WithState(st))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.CloneOnce(doc); err != nil {
		t.Fatalf("CloneOnce: %v", err)
	}

	entry, ok := st.Last(doc)
	if !ok {
		t.Fatal("expected a recorded state entry")
	}
	if entry.Link != "org-el" || entry.Hash == "" {
		t.Errorf("unexpected entry %+v", entry)
	}
}
