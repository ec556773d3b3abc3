package slot

import (
	"context"
	"sync"
)

// Memory is an in-process slot. It keeps no data across restarts and counts
// writes, which makes it handy for tests and throwaway sessions.
type Memory struct {
	mu    sync.Mutex
	name  string
	data  []byte
	saves int

	// LoadErr and SaveErr, when set, are returned instead of touching data.
	LoadErr error
	SaveErr error
}

func NewMemory(name string) *Memory {
	return &Memory{name: name}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.data == nil {
		return nil, ErrEmpty
	}
	return append([]byte(nil), m.data...), nil
}

func (m *Memory) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *Memory) Close() error { return nil }

// Saves reports how many successful writes the slot has seen.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Set replaces the stored blob without counting a write.
func (m *Memory) Set(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
}
