package carousel

import (
	"fmt"
	"sync"

	"swipeable/internal/swipe"
)

// Store owns the current index of every carousel registered with it.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*storeEntry
}

type storeEntry struct {
	index   int
	count   int
	watcher func(index int)
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*storeEntry)}
}

// Register adds or replaces the entry for id.
func (s *Store) Register(id string, count, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &storeEntry{index: swipe.WrapIndex(index, count), count: count}
}

// Remove drops the entry for id.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Index returns the current index for id.
func (s *Store) Index(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return 0, false
	}
	return e.index, true
}

// Len returns the number of registered carousels.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Watch installs fn to be called after every external SetIndex on id.
// Writes made through the carousel's own StoreHost are not reported, since
// the carousel already observes those.
func (s *Store) Watch(id string, fn func(index int)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("carousel %q not registered", id)
	}
	e.watcher = fn
	return nil
}

// SetIndex writes a new index for id from outside the carousel and notifies
// its watcher. The stored (wrapped) index is returned.
func (s *Store) SetIndex(id string, index int) (int, error) {
	stored, watcher, err := s.write(id, index)
	if err != nil {
		return 0, err
	}
	if watcher != nil {
		watcher(stored)
	}
	return stored, nil
}

// SetCount changes the item count for id, rewrapping its index.
func (s *Store) SetCount(id string, count int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return 0, fmt.Errorf("carousel %q not registered", id)
	}
	e.count = count
	e.index = swipe.WrapIndex(e.index, count)
	return e.index, nil
}

func (s *Store) write(id string, index int) (int, func(int), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return 0, nil, fmt.Errorf("carousel %q not registered", id)
	}
	e.index = swipe.WrapIndex(index, e.count)
	return e.index, e.watcher, nil
}

// Host returns a Host that keeps the index for id in the store and draws
// through view.
func (s *Store) Host(id string, view View) Host {
	return &storeHost{store: s, id: id, view: view}
}

type storeHost struct {
	store *Store
	id    string
	view  View
}

func (h *storeHost) ApplyOffset(x float64) error {
	if h.view == nil {
		return nil
	}
	return h.view.ApplyOffset(x)
}

func (h *storeHost) PreventScroll(enabled bool) error {
	if h.view == nil {
		return nil
	}
	return h.view.PreventScroll(enabled)
}

func (h *storeHost) SetIndex(index int) (int, error) {
	stored, _, err := h.store.write(h.id, index)
	return stored, err
}
