package storage

import (
	"sync"

	"github.com/karupanerura/cleancalc/internal/calculator"
)

type Store interface {
	calculator.Persister
	Load() (calculator.State, error)
}

type MemoryStore struct {
	mu    sync.Mutex
	state calculator.State
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(initial calculator.State) *MemoryStore {
	return &MemoryStore{state: initial}
}

func (s *MemoryStore) Load() (calculator.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state), nil
}

func (s *MemoryStore) Save(state calculator.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = cloneState(state)
	return nil
}

func cloneState(s calculator.State) calculator.State {
	s.History = append([]calculator.HistoryItem(nil), s.History...)
	return s
}
