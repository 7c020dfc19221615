package counter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	count, err := r.Inc(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	count, err = r.Inc(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	_, err = r.Inc(ctx, "b")
	require.NoError(t, err)

	all, err := r.All(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"a": 2, "b": 1}, all)

	// All returns a copy, mutating it must not affect the repository.
	all["a"] = 100

	again, err := r.All(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), again["a"])
}

func TestMemoryRepositoryConcurrent(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := 0; j < 100; j++ {
				_, _ = r.Inc(ctx, "shared")
			}
		}()
	}
	wg.Wait()

	all, err := r.All(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1000), all["shared"])
}
