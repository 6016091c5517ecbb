package numerator

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator.
type MockGenerator struct {
	NextFunc func(ctx context.Context, key Key) (int64, error)
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, key Key) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, key)
	}
	return 1, nil
}

// MemoryGenerator keeps counters in process memory.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[Key]int64
}

// NewMemoryGenerator creates an empty in-memory generator.
func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[Key]int64)}
}

// Next implements Generator.
func (g *MemoryGenerator) Next(_ context.Context, key Key) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[key]++
	return g.counters[key], nil
}

// Ensure compile-time interface compliance.
var (
	_ Generator = (*MockGenerator)(nil)
	_ Generator = (*MemoryGenerator)(nil)
)
