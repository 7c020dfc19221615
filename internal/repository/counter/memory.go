package counter

import (
	"context"
	"sync"
)

// memoryRepository is the fallback when no Redis is configured. Counters
// reset on restart, which is acceptable for a derived statistic.
type memoryRepository struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryRepository() *memoryRepository {
	return &memoryRepository{
		counters: make(map[string]int64),
	}
}

func (r *memoryRepository) Inc(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters[id]++

	return r.counters[id], nil
}

func (r *memoryRepository) All(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int64, len(r.counters))
	for id, count := range r.counters {
		out[id] = count
	}

	return out, nil
}
