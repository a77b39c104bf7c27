package routecache

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use FileRepository or
// PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	samples map[Key]*Sample
}

// NewInMemoryRepository creates a new in-memory route sample repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		samples: make(map[Key]*Sample),
	}
}

// Get retrieves the sample for a key.
func (r *InMemoryRepository) Get(_ context.Context, key Key) (*Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.samples[key]
	if !ok {
		return nil, ErrSampleNotFound
	}

	// Return a copy
	cpy := *s
	return &cpy, nil
}

// Put stores a sample for a key.
func (r *InMemoryRepository) Put(_ context.Context, key Key, sample *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *sample
	r.samples[key] = &cpy
	return nil
}

// Count returns the number of cached samples.
func (r *InMemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.samples), nil
}

// Clear removes all cached samples.
func (r *InMemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = make(map[Key]*Sample)
	return nil
}
