package cache

import (
	"errors"
	"sync"
)

// ErrUnavailable is returned by a MemoryKV whose storage has been disabled.
var ErrUnavailable = errors.New("storage unavailable")

// MemoryKV is an in-process KV for tests and runs without a database.
type MemoryKV struct {
	mu       sync.Mutex
	values   map[string]string
	disabled bool
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return "", false, ErrUnavailable
	}
	v, ok := m.values[key]
	return v, ok, nil
}

// SetAll stores every pair under one lock.
func (m *MemoryKV) SetAll(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disabled {
		return ErrUnavailable
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

// Put stores a raw value, bypassing encoding. Used to seed corrupt entries.
func (m *MemoryKV) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Disable makes every subsequent call fail with ErrUnavailable.
func (m *MemoryKV) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = true
}
