package storage

import (
	"context"
	"sync"
)

// Memory keeps values in process memory. Nothing survives a restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	m.mu.Lock()
	m.values[key] = cloneBytes(value)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
