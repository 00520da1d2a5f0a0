package blobstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/rezonia/docingest/internal/model"
)

// MemoryStore is an in-process Store for tests and single-node local mode.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.data[key] = cp
	return "mem://" + key, nil
}

func (m *MemoryStore) Get(ctx context.Context, uri string) ([]byte, error) {
	key := uri
	const prefix = "mem://"
	if len(uri) > len(prefix) && uri[:len(prefix)] == prefix {
		key = uri[len(prefix):]
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, &model.StorageError{Op: "get " + uri, Cause: fmt.Errorf("no object at key %q", key)}
	}
	return data, nil
}
