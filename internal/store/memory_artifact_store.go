package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/imageshark/imageshark/internal/domain"
)

// MemoryArtifactStore is the single-process fallback. MaxEntries caps the
// accepted entries so a burst of large data URLs cannot exhaust memory;
// a full store reports a storage failure like a quota would.
type MemoryArtifactStore struct {
	mu         sync.RWMutex
	entries    map[string]string
	maxEntries int
}

func NewMemoryArtifactStore(maxEntries int) *MemoryArtifactStore {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &MemoryArtifactStore{
		entries:    make(map[string]string),
		maxEntries: maxEntries,
	}
}

func (s *MemoryArtifactStore) Put(_ context.Context, key, dataURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		return fmt.Errorf("%w: artifact store is full", domain.ErrStorageFailure)
	}
	s.entries[key] = dataURL
	return nil
}

func (s *MemoryArtifactStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dataURL, ok := s.entries[key]
	if !ok {
		return "", ErrArtifactNotFound
	}
	return dataURL, nil
}
