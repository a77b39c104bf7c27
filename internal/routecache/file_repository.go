package routecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileRepository persists samples as a single JSON snapshot on disk, nested
// by location pair then slot label. The snapshot is read once at
// construction and rewritten on every Put, so a crash between passes never
// loses completed lookups.
type FileRepository struct {
	path string

	mu sync.RWMutex
	// locations maps "origin|destination" to slot-label -> sample.
	locations map[string]map[string]*Sample
}

// snapshot is the on-disk format.
type snapshot struct {
	Locations map[string]map[string]*Sample `json:"locations"`
}

// NewFileRepository creates a file-backed repository, seeding the in-memory
// store from the snapshot at path if one exists.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path:      path,
		locations: make(map[string]map[string]*Sample),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("reading cache snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding cache snapshot %s: %w", path, err)
	}
	if snap.Locations != nil {
		r.locations = snap.Locations
	}
	return r, nil
}

// locationKey joins the origin/destination pair. Addresses are compared as
// raw strings, so the separator only needs to be unambiguous.
func locationKey(origin, destination string) string {
	return origin + "|" + destination
}

// Get retrieves the sample for a key.
func (r *FileRepository) Get(_ context.Context, key Key) (*Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slots, ok := r.locations[locationKey(key.Origin, key.Destination)]
	if !ok {
		return nil, ErrSampleNotFound
	}
	s, ok := slots[key.SlotLabel]
	if !ok {
		return nil, ErrSampleNotFound
	}

	cpy := *s
	return &cpy, nil
}

// Put stores a sample and rewrites the snapshot.
func (r *FileRepository) Put(_ context.Context, key Key, sample *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc := locationKey(key.Origin, key.Destination)
	if r.locations[loc] == nil {
		r.locations[loc] = make(map[string]*Sample)
	}
	cpy := *sample
	r.locations[loc][key.SlotLabel] = &cpy

	return r.flushLocked()
}

// Count returns the number of cached samples.
func (r *FileRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, slots := range r.locations {
		n += len(slots)
	}
	return n, nil
}

// Clear removes all cached samples and the snapshot file.
func (r *FileRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.locations = make(map[string]map[string]*Sample)
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing cache snapshot: %w", err)
	}
	return nil
}

// flushLocked writes the snapshot atomically via a temp file and rename.
// Callers must hold the write lock.
func (r *FileRepository) flushLocked() error {
	data, err := json.MarshalIndent(snapshot{Locations: r.locations}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache snapshot: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".routecache-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache snapshot: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cache snapshot: %w", err)
	}
	return nil
}
