package storage

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
)

type memoryRecord struct {
	body     []byte
	revision int64
}

// MemoryStore is an in-process NamespaceStore for tests and throwaway sessions.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryRecord)}
}

// LoadNamespace returns a copy of the stored body.
func (s *MemoryStore) LoadNamespace(_ context.Context, namespace string) ([]byte, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[namespace]
	if !ok {
		return nil, 0, nil
	}
	return append([]byte(nil), rec.body...), rec.revision, nil
}

func (s *MemoryStore) SaveNamespace(_ context.Context, namespace string, body []byte, revision int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.items[namespace]
	if rec.revision != revision {
		return 0, fmt.Errorf("%w: namespace %s at revision %d, write based on %d",
			core.ErrConflict, namespace, rec.revision, revision)
	}

	next := rec.revision + 1
	s.items[namespace] = memoryRecord{body: append([]byte(nil), body...), revision: next}
	return next, nil
}
