package routecache

import "context"

// Repository defines the interface for route sample persistence. Entries are
// write-once: Put for an existing key overwrites only on explicit refresh,
// and implementations never expire entries on their own. Durability policy
// belongs to the implementation: the file and Postgres repositories flush on
// every Put rather than once per process.
type Repository interface {
	// Get retrieves the sample for a key.
	// Returns ErrSampleNotFound if no sample is cached.
	Get(ctx context.Context, key Key) (*Sample, error)

	// Put stores a sample for a key and makes it durable before returning.
	Put(ctx context.Context, key Key, sample *Sample) error

	// Count returns the number of cached samples.
	Count(ctx context.Context) (int, error)

	// Clear removes all cached samples.
	Clear(ctx context.Context) error
}
