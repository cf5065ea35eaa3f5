// Package memory provides an in-memory KeyValueStore implementation.
// It backs tests and the ephemeral runtime mode.
package memory

import (
	"sync"

	"github.com/evxf/melodia/internal/domain"
	"github.com/evxf/melodia/internal/ports"
)

// Store is a map-backed KeyValueStore.
//
// Thread-safe: all operations protected by sync.RWMutex.
type Store struct {
	mu     sync.RWMutex
	values map[string]string

	// Failure injection for tests
	failGet bool
	failSet bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

// SetFailGet configures the store to fail reads (for testing).
func (s *Store) SetFailGet(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = fail
}

// SetFailSet configures the store to fail writes (for testing).
func (s *Store) SetFailSet(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = fail
}

// Get returns the value for key, or domain.ErrKeyNotFound when absent.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failGet {
		return "", domain.NewRepositoryError("get", key, "injected failure", nil)
	}

	value, ok := s.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return value, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSet {
		return domain.NewRepositoryError("set", key, "injected failure", nil)
	}

	s.values[key] = value
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Len returns the number of stored keys (for testing).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Verify interface implementation
var _ ports.KeyValueStore = (*Store)(nil)
