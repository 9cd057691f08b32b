package blobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the BlobStore contract.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) BlobStore) {
	ctx := context.Background()

	t.Run("PutGet", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "codec.rbqc", []byte("hello")))

		got, err := s.Get(ctx, "codec.rbqc")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", []byte("v1")))
		require.NoError(t, s.Put(ctx, "a", []byte("v2")))
		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("NotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "a", []byte("x")))
		require.NoError(t, s.Delete(ctx, "a"))
		_, err := s.Get(ctx, "a")
		require.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, s.Delete(ctx, "a"))
	})

	t.Run("List", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"codecs/b", "codecs/a", "other/c"} {
			require.NoError(t, s.Put(ctx, name, []byte(name)))
		}
		names, err := s.List(ctx, "codecs/")
		require.NoError(t, err)
		assert.Equal(t, []string{"codecs/a", "codecs/b"}, names)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("NoAliasing", func(t *testing.T) {
		s := newStore(t)
		data := []byte("abc")
		require.NoError(t, s.Put(ctx, "a", data))
		data[0] = 'X'

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)
		got[1] = 'Y'

		again, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("InvalidName", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"", "/abs", "../escape", "a/../../b", "a//b"} {
			err := s.Put(ctx, name, []byte("x"))
			require.ErrorIs(t, err, ErrInvalidName, "name %q", name)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := s.Put(cctx, "a", []byte("x"))
		require.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("Concurrent", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				name := fmt.Sprintf("blob-%d", i)
				assert.NoError(t, s.Put(ctx, name, []byte(name)))
				got, err := s.Get(ctx, name)
				assert.NoError(t, err)
				assert.Equal(t, []byte(name), got)
			}(i)
		}
		wg.Wait()
		names, err := s.List(ctx, "blob-")
		require.NoError(t, err)
		assert.Len(t, names, 8)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) BlobStore { return NewMemoryStore() })
}

func TestLocalStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) BlobStore { return NewLocalStore(t.TempDir()) })
}

func TestCachingStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) BlobStore { return NewCachingStore(NewMemoryStore(), 1<<20) })
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"a", "a/b", "codecs/dim128.rbqc", "..a"} {
		assert.NoError(t, ValidateName(name), name)
	}
	for _, name := range []string{"", ".", "..", "/a", "a/", "./a", "a\\b"} {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
}
