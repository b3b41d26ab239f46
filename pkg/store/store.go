// Package store provides thread-safe in-memory debate storage and the
// single-flight guard that prevents concurrent runs of the same debate.
package store

import (
	"fmt"
	"sort"
	"sync"

	"Rostrum/pkg/debate"
)

// ErrDebateNotFound reports a lookup for an unknown debate id.
type ErrDebateNotFound struct {
	DebateID string
}

func (e *ErrDebateNotFound) Error() string {
	return fmt.Sprintf("debate with ID %s not found", e.DebateID)
}

// ErrDebateExists reports a Create with an already-stored debate id.
type ErrDebateExists struct {
	DebateID string
}

func (e *ErrDebateExists) Error() string {
	return fmt.Sprintf("debate with ID %s already exists", e.DebateID)
}

// MemoryStore keeps debate states in a mutex-guarded map.
type MemoryStore struct {
	mu      sync.RWMutex
	debates map[string]*debate.State
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		debates: make(map[string]*debate.State),
	}
}

// Create stores a new debate.
func (s *MemoryStore) Create(state *debate.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.debates[state.ID]; exists {
		return &ErrDebateExists{DebateID: state.ID}
	}
	s.debates[state.ID] = state
	return nil
}

// Get returns a debate by id.
func (s *MemoryStore) Get(debateID string) (*debate.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.debates[debateID]
	if !ok {
		return nil, &ErrDebateNotFound{DebateID: debateID}
	}
	return state, nil
}

// Update replaces an existing debate.
func (s *MemoryStore) Update(state *debate.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debates[state.ID]; !ok {
		return &ErrDebateNotFound{DebateID: state.ID}
	}
	s.debates[state.ID] = state
	return nil
}

// Delete removes a debate.
func (s *MemoryStore) Delete(debateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.debates[debateID]; !ok {
		return &ErrDebateNotFound{DebateID: debateID}
	}
	delete(s.debates, debateID)
	return nil
}

// List returns all stored debates ordered by creation time.
func (s *MemoryStore) List() []*debate.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]*debate.State, 0, len(s.debates))
	for _, state := range s.debates {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].CreatedAt.Before(states[j].CreatedAt)
	})
	return states
}

// ErrRunInFlight reports that a debate already has an active run.
type ErrRunInFlight struct {
	DebateID string
}

func (e *ErrRunInFlight) Error() string {
	return fmt.Sprintf("debate %s already has a run in flight", e.DebateID)
}

// RunGuard is the caller-side single-flight guard required by the
// coordinator: at most one active Run per debate id.
type RunGuard struct {
	mu     sync.Mutex
	active map[string]bool
}

// NewRunGuard creates an empty guard.
func NewRunGuard() *RunGuard {
	return &RunGuard{active: make(map[string]bool)}
}

// Acquire reserves the debate id for one run. The returned release
// function must be called when the run ends.
func (g *RunGuard) Acquire(debateID string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[debateID] {
		return nil, &ErrRunInFlight{DebateID: debateID}
	}
	g.active[debateID] = true
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.active, debateID)
	}, nil
}
