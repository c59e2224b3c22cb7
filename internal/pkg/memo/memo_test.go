package memo

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type key struct {
	version uint64
	day     string
}

func TestCache_ComputesOncePerKey(t *testing.T) {
	c := New[key, int](4)
	calls := 0
	fn := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.Get(key{1, "2024-03-01"}, fn)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.Get(key{1, "2024-03-01"}, fn)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	_, err = c.Get(key{2, "2024-03-01"}, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c := New[string, int](2)
	boom := errors.New("boom")

	_, err := c.Get("a", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := c.Get("a", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestCache_EvictsOldest(t *testing.T) {
	c := New[string, int](2)
	for i, k := range []string{"a", "b", "c"} {
		_, err := c.Get(k, func() (int, error) { return i, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())

	recomputed := false
	_, _ = c.Get("a", func() (int, error) {
		recomputed = true
		return 0, nil
	})
	assert.True(t, recomputed, "oldest entry should have been evicted")
}

func TestCache_RecentlyReadEntrySurvivesEviction(t *testing.T) {
	c := New[string, int](2)
	for i, k := range []string{"a", "b"} {
		_, err := c.Get(k, func() (int, error) { return i, nil })
		require.NoError(t, err)
	}
	_, err := c.Get("a", func() (int, error) { return -1, nil })
	require.NoError(t, err)
	_, err = c.Get("c", func() (int, error) { return 2, nil })
	require.NoError(t, err)

	v, err := c.Get("a", func() (int, error) { return -1, nil })
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	recomputed := false
	_, _ = c.Get("b", func() (int, error) {
		recomputed = true
		return 1, nil
	})
	assert.True(t, recomputed, "least recently used entry should have been evicted")
}

func TestCache_ConcurrentMissesShareComputation(t *testing.T) {
	c := New[string, int](2)
	var calls int32
	start := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := c.Get("k", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 99, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 99, v)
		}()
	}
	close(start)
	close(release)
	wg.Wait()

	// singleflight shares in-flight calls; late arrivals hit the cache.
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(8))
	assert.Equal(t, 1, c.Len())
}
