package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps collections in process memory. It counts writes so tests
// can assert that read-only commands never persist anything.
type MemoryBackend struct {
	mu     sync.Mutex
	docs   map[Collection][]byte
	writes map[Collection]int
	// FailWrites makes every Write return WriteErr.
	FailWrites bool
	WriteErr   error
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:   map[Collection][]byte{},
		writes: map[Collection]int{},
	}
}

func (m *MemoryBackend) Read(_ context.Context, c Collection) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.docs[c]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryBackend) Write(_ context.Context, c Collection, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		if m.WriteErr != nil {
			return m.WriteErr
		}
		return ErrInvalid
	}
	b := make([]byte, len(data))
	copy(b, data)
	m.docs[c] = b
	m.writes[c]++
	return nil
}

// Put stores a raw document without counting it as a write.
func (m *MemoryBackend) Put(c Collection, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[c] = append([]byte(nil), data...)
}

// Writes returns how many successful writes reached the collection.
func (m *MemoryBackend) Writes(c Collection) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[c]
}

// TotalWrites returns the number of successful writes across all collections.
func (m *MemoryBackend) TotalWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.writes {
		n += w
	}
	return n
}

func (m *MemoryBackend) Close() error { return nil }
