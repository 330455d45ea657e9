package blobstore

import (
	"context"

	"github.com/hupe1980/dehnvol/internal/cache"
	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a BlobStore and keeps whole blobs in an LRU, so that
// tables read from remote stores are downloaded once per process.
type CachingStore struct {
	inner BlobStore
	cache *cache.LRU
	// maxParallel bounds concurrent downloads in Prefetch.
	maxParallel int
}

// NewCachingStore creates a new CachingStore.
// maxParallel defaults to 4 if <= 0.
func NewCachingStore(inner BlobStore, c *cache.LRU, maxParallel int) *CachingStore {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &CachingStore{
		inner:       inner,
		cache:       c,
		maxParallel: maxParallel,
	}
}

// Open passes through to the wrapped store. Ranged reads are not cached.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	return s.inner.Open(ctx, name)
}

// List passes through to the wrapped store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Fetch returns the whole blob, from the cache when possible.
func (s *CachingStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if data, ok := s.cache.Get(name); ok {
		return data, nil
	}
	data, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	s.cache.Set(name, data)
	return data, nil
}

// Prefetch downloads the named blobs concurrently into the cache.
func (s *CachingStore) Prefetch(ctx context.Context, names ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for _, name := range names {
		g.Go(func() error {
			_, err := s.Fetch(ctx, name)
			return err
		})
	}
	return g.Wait()
}

// Invalidate drops a cached blob.
func (s *CachingStore) Invalidate(name string) {
	s.cache.Invalidate(func(key string) bool { return key == name })
}
