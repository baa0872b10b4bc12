package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Store 字节缓存，Get 未命中返回 ErrKeyNotFound，Del 不存在的键也返回成功
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Close() error
}

type Options struct {
	// Type freecache 或 redis
	Type string `cfg:"type" def:"freecache" validate:"oneof=freecache redis"`

	FreeCache FreeCacheStoreOptions `cfg:"freecache"`
	Redis     RedisStoreOptions     `cfg:"redis"`
}

func NewStoreWithOptions(options *Options) (Store, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	switch options.Type {
	case "", "freecache":
		return NewFreeCacheStoreWithOptions(&options.FreeCache), nil
	case "redis":
		return NewRedisStoreWithOptions(&options.Redis)
	}
	return nil, errors.Errorf("unsupported cache type: %s", options.Type)
}
