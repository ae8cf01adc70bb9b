package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFSWatcherWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.org")
	writeFile(t, path, "before")

	w, err := NewFSWatcher()
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if !w.IsWatching(path) {
		t.Error("IsWatching should report true")
	}

	writeFile(t, path, "after")

	select {
	case ev := <-w.Events():
		if ev.Path != path {
			t.Errorf("expected %s, got %s", path, ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for write event")
	}
}

func TestFSWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.el")
	sibling := filepath.Join(dir, "sibling.el")
	writeFile(t, watched, "x")
	writeFile(t, sibling, "x")

	w, err := NewFSWatcher()
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(watched); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeFile(t, sibling, "changed")

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event for sibling: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSWatcherRenameOver(t *testing.T) {
	// Save-via-rename is the common editor pattern; the directory
	// watch must survive it and report the change.
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.org")
	writeFile(t, path, "v1")

	w, err := NewFSWatcher()
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	tmp := filepath.Join(dir, "doc.org.tmp")
	writeFile(t, tmp, "v2")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events():
		if ev.Path != path {
			t.Errorf("expected %s, got %s", path, ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rename event")
	}
}

func TestFSWatcherErrors(t *testing.T) {
	w, err := NewFSWatcher()
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch("/does/not/exist.org"); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("expected ErrPathNotExist, got %v", err)
	}
	if err := w.Unwatch("/never/watched.org"); !errors.Is(err, ErrNotWatching) {
		t.Errorf("expected ErrNotWatching, got %v", err)
	}
}

func TestFSWatcherUnwatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.org")
	writeFile(t, path, "x")

	w, err := NewFSWatcher()
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Unwatch(path); err != nil {
		t.Fatalf("Unwatch: %v", err)
	}
	if w.IsWatching(path) {
		t.Error("path should no longer be watched")
	}

	writeFile(t, path, "changed")
	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event after Unwatch: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFSWatcherClosedOperations(t *testing.T) {
	w, err := NewFSWatcher()
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.Watch("anything"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
