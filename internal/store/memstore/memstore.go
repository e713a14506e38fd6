// Package memstore is the process-memory todo store.
// Nothing is written to disk; the collection lives as long as the Store.
package memstore

import (
	"context"
	"sync"

	"github.com/Makepad-fr/priotodo/internal/model"
	"github.com/Makepad-fr/priotodo/internal/store"
)

// Store keeps items in a map keyed by id.
type Store struct {
	mu     sync.RWMutex
	items  map[int]model.Item
	nextID int
	closed bool
}

var _ store.Store = (*Store)(nil)

// New returns an empty store whose first id is 1.
func New() *Store {
	return &Store{
		items:  make(map[int]model.Item),
		nextID: 1,
	}
}

func (s *Store) Add(_ context.Context, text string, priority int) (model.Item, error) {
	if err := store.Validate(text, priority); err != nil {
		return model.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return model.Item{}, store.ErrClosed
	}

	it := model.Item{
		ID:       s.nextID,
		Text:     store.NormalizeText(text),
		Priority: priority,
	}
	s.items[it.ID] = it
	s.nextID++
	return it, nil
}

func (s *Store) List(_ context.Context) ([]model.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	out := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	store.SortItems(out)
	return out, nil
}

func (s *Store) Delete(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, store.ErrClosed
	}

	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *Store) MissingPriorities(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	ps := make([]int, 0, len(s.items))
	for _, it := range s.items {
		ps = append(ps, it.Priority)
	}
	return store.Gaps(ps)
}

// Close drops the collection. Later calls fail with store.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	return nil
}
