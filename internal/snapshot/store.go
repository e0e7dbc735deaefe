package snapshot

import "sync"

// Store keeps an in-memory copy of the snapshot document so daemon API reads
// never touch the file. The job replaces it after each successful run and the
// file watcher refreshes it on external edits.
type Store struct {
	mu   sync.RWMutex
	data Document
}

// NewStore creates a store holding the given document.
func NewStore(doc Document) *Store {
	doc.Normalize()
	return &Store{data: doc}
}

// Current returns a copy of the stored document.
func (s *Store) Current() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.data)
}

// Replace swaps the stored document.
func (s *Store) Replace(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = cloneDocument(doc)
}

// LastUpdate returns the stored document's last update timestamp.
func (s *Store) LastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Metadata.LastUpdate
}

// Len returns the number of seen links.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Seen)
}

// cloneDocument copies the document so callers never share the seen slice.
func cloneDocument(doc Document) Document {
	out := doc
	out.Seen = make([]string, len(doc.Seen))
	copy(out.Seen, doc.Seen)
	return out
}
