package assets

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore is a read-through LRU in front of another Store. Misses are not cached.
type CachedStore struct {
	origin Store
	cache  *lru.Cache[string, Record]

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewCachedStore(origin Store, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, Record](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{origin: origin, cache: cache}, nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (Record, error) {
	if r, ok := s.cache.Get(id); ok {
		s.hits.Add(1)
		return r, nil
	}
	s.misses.Add(1)
	r, err := s.origin.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	s.cache.Add(id, r)
	return r, nil
}

// Invalidate drops id from the cache.
func (s *CachedStore) Invalidate(id string) { s.cache.Remove(id) }

// Stats returns cache hit and miss counts.
func (s *CachedStore) Stats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}
