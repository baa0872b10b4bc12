package cache

import (
	"context"
	"time"

	"github.com/coocood/freecache"
)

type FreeCacheStoreOptions struct {
	// Size 字节数，freecache 最小 512KB
	Size int `cfg:"size" def:"33554432"`
}

// FreeCacheStore 进程内缓存，ttl 按秒取整，小于 1 秒视为不过期
type FreeCacheStore struct {
	cache *freecache.Cache
}

func NewFreeCacheStoreWithOptions(options *FreeCacheStoreOptions) *FreeCacheStore {
	return &FreeCacheStore{cache: freecache.NewCache(options.Size)}
}

func (s *FreeCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.cache.Get([]byte(key))
	if err != nil {
		return nil, ErrKeyNotFound
	}
	return value, nil
}

func (s *FreeCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.cache.Set([]byte(key), value, int(ttl.Seconds()))
}

func (s *FreeCacheStore) Del(ctx context.Context, key string) error {
	s.cache.Del([]byte(key))
	return nil
}

func (s *FreeCacheStore) Close() error {
	s.cache.Clear()
	return nil
}
