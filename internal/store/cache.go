package store

import "context"

// Cache failures never fail a request; the database stays the source of truth.

// cacheFill remembers the generation a lookup ran under. The matching
// cacheSet writes into that generation, so rows loaded before a concurrent
// invalidation are never served afterwards.
type cacheFill struct {
	gen   int64
	valid bool
}

func (s *Store) cacheGet(ctx context.Context, key string, dst interface{}) (cacheFill, bool) {
	if s.cache == nil {
		return cacheFill{}, false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		return cacheFill{}, false
	}
	fill := cacheFill{gen: gen, valid: true}
	ok, err := s.cache.Get(ctx, gen, key, dst)
	return fill, err == nil && ok
}

func (s *Store) cacheSet(ctx context.Context, fill cacheFill, key string, value interface{}) {
	if s.cache == nil || !fill.valid {
		return
	}
	_ = s.cache.Set(ctx, fill.gen, key, value)
}

func (s *Store) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx)
}
