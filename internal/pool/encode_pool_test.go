package pool

import (
	"sync"
	"testing"
)

func TestEncodeContext_Basic(t *testing.T) {
	ctx := Get(128)
	defer Put(ctx)

	if len(ctx.Rotated) != 128 || len(ctx.Codes) != 128 {
		t.Errorf("Expected buffers of length 128, got %d/%d", len(ctx.Rotated), len(ctx.Codes))
	}
}

func TestEncodeContext_Grow(t *testing.T) {
	ctx := Get(DefaultDimensions * 4)
	defer Put(ctx)

	if len(ctx.Rotated) != DefaultDimensions*4 {
		t.Errorf("Rotated should grow to %d, got %d", DefaultDimensions*4, len(ctx.Rotated))
	}

	ctx.Resize(64)
	if len(ctx.Codes) != 64 {
		t.Errorf("Codes should shrink to 64, got %d", len(ctx.Codes))
	}
	if cap(ctx.Codes) < DefaultDimensions*4 {
		t.Error("Shrinking should keep the capacity")
	}
}

func TestEncodeContext_OversizedNotPooled(t *testing.T) {
	ctx := Get(MaxPooledDimensions + 64)
	Put(ctx) // must not panic; the context is dropped

	next := Get(64)
	defer Put(next)
	if len(next.Rotated) != 64 {
		t.Errorf("Expected length 64, got %d", len(next.Rotated))
	}
}

func TestEncodeContext_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				size := 64 * (1 + (i+j)%8)
				ctx := Get(size)
				for k := range ctx.Codes {
					ctx.Codes[k] = uint8(i)
				}
				for k := range ctx.Codes {
					if ctx.Codes[k] != uint8(i) {
						t.Errorf("buffer shared between goroutines")
						break
					}
				}
				Put(ctx)
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkGetPut(b *testing.B) {
	for b.Loop() {
		ctx := Get(768)
		Put(ctx)
	}
}
