package memoryinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/kernel"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/dgraph-io/ristretto"
)

// CachedRepository pone un caché ristretto delante de otro repositorio.
// Writes replace the cached entry before Save returns, so a read that
// follows a write in this process always sees it. "Not found" is never
// cached.
type CachedRepository struct {
	inner memory.Repository
	cache *ristretto.Cache
	ttl   time.Duration

	// fills hold the read side while a miss is loaded; Save holds the write
	// side so a slow reader cannot put an older record back in the cache.
	mu sync.RWMutex
}

func NewCachedRepository(inner memory.Repository, maxCost int64, ttl time.Duration) (*CachedRepository, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &CachedRepository{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}, nil
}

func (r *CachedRepository) Get(ctx context.Context, userID kernel.UserID) (*memory.Record, error) {
	if v, ok := r.cache.Get(userID.String()); ok {
		if rec, ok := v.(*memory.Record); ok {
			return rec.Clone(), nil
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, err := r.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.store(rec)
	return rec.Clone(), nil
}

func (r *CachedRepository) Save(ctx context.Context, record *memory.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := record.UserID.String()
	r.cache.Del(key)
	r.cache.Wait()

	if err := r.inner.Save(ctx, record); err != nil {
		return err
	}
	r.store(record)
	return nil
}

func (r *CachedRepository) store(rec *memory.Record) {
	r.cache.SetWithTTL(rec.UserID.String(), rec.Clone(), cost(rec), r.ttl)
	r.cache.Wait()
}

// Ping delegates to the wrapped repository when it supports it
func (r *CachedRepository) Ping(ctx context.Context) error {
	if p, ok := r.inner.(memory.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (r *CachedRepository) Close() {
	r.cache.Close()
}

func cost(rec *memory.Record) int64 {
	raw, err := json.Marshal(rec.Data)
	if err != nil || len(raw) == 0 {
		return 1
	}
	return int64(len(raw))
}
