package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	stdsync "sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// State persists per-link sync results across runs as a small JSON
// document keyed by the owning file path.
type State struct {
	mu   stdsync.Mutex
	path string
}

// Entry records the last completed clone for one owning path.
type Entry struct {
	// Link is the link type name that produced the clone.
	Link string
	// Hash is the content hash of the source at clone time.
	Hash string
	// Updated is when the clone completed.
	Updated time.Time
}

// OpenState returns a State backed by path. The file is created on the
// first Record.
func OpenState(path string) *State {
	return &State{path: path}
}

// Path returns the backing file path.
func (s *State) Path() string { return s.path }

// Record stores the clone result for an owning path.
func (s *State) Record(owner string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading sync state: %w", err)
		}
		data = []byte("{}")
	}

	base := "links." + escapeKey(owner)
	for field, value := range map[string]string{
		base + ".link":    e.Link,
		base + ".hash":    e.Hash,
		base + ".updated": e.Updated.UTC().Format(time.RFC3339Nano),
	} {
		data, err = sjson.SetBytes(data, field, value)
		if err != nil {
			return fmt.Errorf("updating sync state: %w", err)
		}
	}

	return writeFileAtomic(s.path, data)
}

// Last returns the recorded entry for an owning path.
func (s *State) Last(owner string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Entry{}, false
	}

	base := "links." + escapeKey(owner)
	node := gjson.GetBytes(data, base)
	if !node.Exists() {
		return Entry{}, false
	}

	e := Entry{
		Link: node.Get("link").String(),
		Hash: node.Get("hash").String(),
	}
	if ts := node.Get("updated").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Updated = t
		}
	}
	return e, true
}

// escapeKey escapes the characters gjson paths treat specially, so
// file paths can be used as object keys.
func escapeKey(key string) string {
	r := strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`, `|`, `\|`)
	return r.Replace(key)
}

// writeFileAtomic writes data via a temp file and rename, so a crash
// never leaves a half-written file behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
