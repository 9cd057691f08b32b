package blobstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts Get calls that reach the backing store.
type countingStore struct {
	BlobStore
	gets int
}

func (c *countingStore) Get(ctx context.Context, name string) ([]byte, error) {
	c.gets++
	return c.BlobStore.Get(ctx, name)
}

func TestCachingStore_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{BlobStore: NewMemoryStore()}
	store := NewCachingStore(inner, 0)

	require.NoError(t, store.Put(ctx, "a", []byte("v1")))
	for i := 0; i < 3; i++ {
		got, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	}
	assert.Equal(t, 1, inner.gets)

	hits, misses := store.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCachingStore_WriteInvalidates(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{BlobStore: NewMemoryStore()}
	store := NewCachingStore(inner, 1<<10)

	require.NoError(t, store.Put(ctx, "a", []byte("v1")))
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "a", []byte("v2")))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 3, inner.gets)
}

// gatedStore pauses the first Get after it has read from the backing store
// until release is closed.
type gatedStore struct {
	BlobStore
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := g.BlobStore.Get(ctx, name)
	g.once.Do(func() {
		close(g.loaded)
		<-g.release
	})
	return data, err
}

func TestCachingStore_ConcurrentPutDuringMiss(t *testing.T) {
	ctx := context.Background()
	inner := &gatedStore{
		BlobStore: NewMemoryStore(),
		loaded:    make(chan struct{}),
		release:   make(chan struct{}),
	}
	require.NoError(t, inner.BlobStore.Put(ctx, "c", []byte("old")))
	store := NewCachingStore(inner, 1<<10)

	done := make(chan []byte)
	go func() {
		got, err := store.Get(ctx, "c")
		assert.NoError(t, err)
		done <- got
	}()

	<-inner.loaded
	require.NoError(t, store.Put(ctx, "c", []byte("new")))
	close(inner.release)
	assert.Equal(t, []byte("old"), <-done)

	for i := 0; i < 2; i++ {
		got, err := store.Get(ctx, "c")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got)
	}
}

func TestCachingStore_ConcurrentDeleteDuringMiss(t *testing.T) {
	ctx := context.Background()
	inner := &gatedStore{
		BlobStore: NewMemoryStore(),
		loaded:    make(chan struct{}),
		release:   make(chan struct{}),
	}
	require.NoError(t, inner.BlobStore.Put(ctx, "c", []byte("old")))
	store := NewCachingStore(inner, 1<<10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Get(ctx, "c")
	}()

	<-inner.loaded
	require.NoError(t, store.Delete(ctx, "c"))
	close(inner.release)
	<-done

	_, err := store.Get(ctx, "c")
	require.ErrorIs(t, err, ErrNotFound)
}
