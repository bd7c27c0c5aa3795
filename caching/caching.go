// Package caching wraps an in-memory TTL cache used for the module registry
// read-through cache and the short-lived status snapshot.
package caching

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	memoryCache *cache.Cache

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCache builds an unstarted cache; Init must be called before use.
func NewCache() *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Init allocates the backing store. defaultTTL bounds how stale a cached
// module row or status may get before a read falls through to the source.
func (s *Cache) Init(defaultTTL time.Duration) (err error) {
	defer func() {
		if err != nil {
			s.Flush()
		}
	}()

	s.memoryCache = cache.New(defaultTTL, 2*defaultTTL)

	return nil
}

func (s *Cache) Get(key string) (any, bool) {
	if s.memoryCache == nil {
		return nil, false
	}
	return s.memoryCache.Get(key)
}

func (s *Cache) Set(key string, value any) {
	if s.memoryCache == nil {
		return
	}
	s.memoryCache.SetDefault(key, value)
}

func (s *Cache) Delete(key string) {
	if s.memoryCache == nil {
		return
	}
	s.memoryCache.Delete(key)
}

func (s *Cache) Flush() error {
	if s.memoryCache != nil {
		s.memoryCache.Flush()
	}
	s.cancel()

	return nil
}

func (s *Cache) GetCtx() context.Context {
	return s.ctx
}
