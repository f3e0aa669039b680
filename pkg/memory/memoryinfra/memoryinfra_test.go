package memoryinfra_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/Abraxas-365/shohayok/pkg/memory/memoryinfra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepository struct {
	memory.Repository
	gets atomic.Int32
}

func (c *countingRepository) Get(ctx context.Context, userID kernel.UserID) (*memory.Record, error) {
	c.gets.Add(1)
	return c.Repository.Get(ctx, userID)
}

func TestInMemoryNotFound(t *testing.T) {
	repo := memoryinfra.NewInMemoryRepository()

	rec, err := repo.Get(context.Background(), "nobody")
	assert.Nil(t, rec)
	assert.True(t, memory.IsNotFound(err))
}

func TestInMemorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := memoryinfra.NewInMemoryRepository()

	require.NoError(t, repo.Save(ctx, memory.NewRecord("u1", memory.Snapshot{"name": "রবিন"})))

	rec, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "রবিন", rec.Data["name"])

	// callers get copies
	rec.Data["name"] = "changed"
	again, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "রবিন", again.Data["name"])
}

func TestInMemoryEmptySnapshotIsNotMissing(t *testing.T) {
	ctx := context.Background()
	repo := memoryinfra.NewInMemoryRepository()
	require.NoError(t, repo.Save(ctx, memory.NewRecord("u1", memory.Snapshot{})))

	rec, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec.Data)
	assert.Empty(t, rec.Data)
}

func TestInMemoryRejectsEmptyUser(t *testing.T) {
	repo := memoryinfra.NewInMemoryRepository()
	err := repo.Save(context.Background(), memory.NewRecord("", nil))
	assert.Error(t, err)
	assert.Equal(t, 0, repo.Len())
}

func newCached(t *testing.T) (*memoryinfra.CachedRepository, *countingRepository) {
	t.Helper()
	inner := &countingRepository{Repository: memoryinfra.NewInMemoryRepository()}
	cached, err := memoryinfra.NewCachedRepository(inner, 1<<20, time.Minute)
	require.NoError(t, err)
	t.Cleanup(cached.Close)
	return cached, inner
}

func TestCachedReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	cached, _ := newCached(t)

	require.NoError(t, cached.Save(ctx, memory.NewRecord("u1", memory.Snapshot{"name": "রবিন"})))
	rec, err := cached.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "রবিন", rec.Data["name"])

	require.NoError(t, cached.Save(ctx, memory.NewRecord("u1", memory.Snapshot{"name": "রাহুল"})))
	rec, err = cached.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "রাহুল", rec.Data["name"])
}

func TestCachedDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	cached, inner := newCached(t)

	_, err := cached.Get(ctx, "u1")
	assert.True(t, memory.IsNotFound(err))

	// a write that bypasses the cache is visible on the next read
	require.NoError(t, inner.Save(ctx, memory.NewRecord("u1", memory.Snapshot{"name": "রবিন"})))
	rec, err := cached.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "রবিন", rec.Data["name"])
	assert.Equal(t, int32(2), inner.gets.Load())
}

func TestCachedReturnsCopies(t *testing.T) {
	ctx := context.Background()
	cached, _ := newCached(t)
	require.NoError(t, cached.Save(ctx, memory.NewRecord("u1", memory.Snapshot{"name": "রবিন"})))

	rec, err := cached.Get(ctx, "u1")
	require.NoError(t, err)
	rec.Data["name"] = "mutated"

	again, err := cached.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "রবিন", again.Data["name"])
}

func TestCachedConcurrentReadersSeeLatestWrite(t *testing.T) {
	ctx := context.Background()
	cached, _ := newCached(t)
	require.NoError(t, cached.Save(ctx, memory.NewRecord("u1", memory.Snapshot{"turn": 0})))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_, _ = cached.Get(ctx, "u1")
			}
		}()
	}
	for i := 1; i <= 20; i++ {
		require.NoError(t, cached.Save(ctx, memory.NewRecord("u1", memory.Snapshot{"turn": i})))
	}
	wg.Wait()

	rec, err := cached.Get(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 20, rec.Data["turn"])
}
