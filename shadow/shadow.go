// Package shadow keeps per-session copies of catalogs that could not be
// written to disk.
package shadow

import (
	"fmt"
	"path/filepath"
	"sync"

	po "github.com/minios-linux/poshare/pofile"
)

type entry struct {
	data      []byte
	wrapWidth int
}

// Store maps (session token, catalog path) to a serialized catalog. Entries
// are stored by value: Get always returns a freshly parsed catalog.
type Store struct {
	mu         sync.Mutex
	entries    map[string]entry
	order      []string
	maxEntries int
}

// New returns an empty store. maxEntries <= 0 means unbounded; otherwise the
// oldest entries are evicted once the bound is exceeded.
func New(maxEntries int) *Store {
	return &Store{entries: make(map[string]entry), maxEntries: maxEntries}
}

func key(token, path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return token + "\x00" + path
}

// Put stores a copy of f.
func (s *Store) Put(token, path string, f *po.File) {
	k := key(token, path)
	e := entry{data: f.Bytes(), wrapWidth: f.WrapWidth}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[k]; !ok {
		s.order = append(s.order, k)
	}
	s.entries[k] = e
	for s.maxEntries > 0 && len(s.order) > s.maxEntries {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
}

// Get parses the stored copy. ok is false when nothing is stored.
func (s *Store) Get(token, path string) (*po.File, bool, error) {
	s.mu.Lock()
	e, ok := s.entries[key(token, path)]
	s.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	f, err := po.ParseBytes(e.data)
	if err != nil {
		return nil, true, fmt.Errorf("parsing shadow copy of %s: %w", path, err)
	}
	f.Path = path
	f.WrapWidth = e.wrapWidth
	return f, true, nil
}

// Delete drops the stored copy, if any.
func (s *Store) Delete(token, path string) {
	k := key(token, path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[k]; !ok {
		return
	}
	delete(s.entries, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored copies.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
