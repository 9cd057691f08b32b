package blobstore

import (
	"context"
	"sync"

	"github.com/hupe1980/rabitq/internal/cache"
)

// DefaultCacheBytes is the cache capacity used when NewCachingStore gets a
// non-positive capacity.
const DefaultCacheBytes = 64 << 20

// CachingStore wraps a BlobStore and keeps recently read blobs in an LRU.
// Writes and deletes go through to the inner store and invalidate the entry.
//
// A read that misses only fills the cache if no write or delete completed
// while it was loading, so a slow read never re-caches a replaced blob.
type CachingStore struct {
	inner BlobStore
	cache *cache.LRU

	mu         sync.Mutex
	generation uint64 // bumped by every completed Put and Delete
}

// NewCachingStore creates a new CachingStore holding at most capacity bytes.
func NewCachingStore(inner BlobStore, capacity int64) *CachingStore {
	if capacity <= 0 {
		capacity = DefaultCacheBytes
	}
	return &CachingStore{
		inner: inner,
		cache: cache.NewLRU(capacity),
	}
}

// Put writes through and drops any cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	err := s.inner.Put(ctx, name, data)
	s.invalidate(name)
	return err
}

// Get serves from the cache or loads from the inner store. The returned
// slice is a private copy.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if data, ok := s.cache.Get(name); ok {
		return clone(data), nil
	}
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generation == gen {
		s.cache.Set(name, clone(data))
	}
	s.mu.Unlock()
	return data, nil
}

// Delete removes the blob and its cached copy.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	err := s.inner.Delete(ctx, name)
	s.invalidate(name)
	return err
}

// invalidate drops name from the cache and fences off in-flight fills.
// It runs after the inner write so no fill can observe the old blob later.
func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	s.generation++
	s.cache.Remove(name)
	s.mu.Unlock()
}

// List is not cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns cache hits and misses.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.cache.Stats()
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
