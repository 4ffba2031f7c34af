// Package cache stores small documents under one cache root. Freshness is
// judged from file modification times and every write is an atomic replace.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/zerr"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
)

// Store resolves keys (slash-separated, relative) below Root.
type Store struct {
	root string
	now  func() time.Time
}

func NewStore(root string) *Store {
	return &Store{root: root, now: time.Now}
}

// WithClock returns a copy of the store that judges freshness against now.
func (s *Store) WithClock(now func() time.Time) *Store {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Store) Root() string { return s.root }

func (s *Store) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Age reports how long ago key was last written.
func (s *Store) Age(key string) (time.Duration, bool) {
	info, err := os.Stat(s.Path(key))
	if err != nil {
		return 0, false
	}
	return s.now().Sub(info.ModTime()), true
}

// IsFresh reports whether key was written less than ttl ago. Any stat error
// counts as stale so callers fall through to a refresh.
func (s *Store) IsFresh(key string, ttl time.Duration) bool {
	age, ok := s.Age(key)
	if !ok {
		return false
	}
	return age < ttl
}

// ReadJSON decodes key into T. Unreadable or malformed documents yield a
// Failure; callers treat both as a cache miss.
func ReadJSON[T any](s *Store, key string) fetch.Result[T] {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return fetch.Failure[T](zerr.With(err, "key", key))
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fetch.Failure[T](zerr.With(fmt.Errorf("%w: %v", fetch.ErrMalformedCache, err), "key", key))
	}
	return fetch.Success(v)
}

// ReadText returns the trimmed content of key. Empty documents are malformed.
func (s *Store) ReadText(key string) fetch.Result[string] {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		return fetch.Failure[string](zerr.With(err, "key", key))
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fetch.Failure[string](zerr.With(zerr.Wrap(fetch.ErrMalformedCache, "empty document"), "key", key))
	}
	return fetch.Success(text)
}

func (s *Store) WriteJSON(key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "encode cache document"), "key", key)
	}
	return s.writeAtomic(key, payload)
}

func (s *Store) WriteText(key string, text string) error {
	return s.writeAtomic(key, []byte(text))
}

// writeAtomic writes to a temp file next to the target and renames it over
// the target, so readers see either the old or the new document.
func (s *Store) writeAtomic(key string, payload []byte) error {
	path := s.Path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "create cache dir"), "dir", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "create temp file"), "key", key)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return zerr.With(zerr.Wrap(err, "write temp file"), "key", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.With(zerr.Wrap(err, "close temp file"), "key", key)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.With(zerr.Wrap(err, "chmod temp file"), "key", key)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.With(zerr.Wrap(err, "replace cache document"), "key", key)
	}
	return nil
}
