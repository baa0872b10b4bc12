package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisStoreOptions struct {
	// Endpoint 单机 host:port
	Endpoint string `cfg:"endpoint"`

	// Endpoints 集群节点，Endpoint 为空时使用
	Endpoints []string `cfg:"endpoints"`

	Username string `cfg:"username"`
	Password string `cfg:"password"`
	DB       int    `cfg:"db"`

	MaxRetries   int           `cfg:"maxRetries" def:"3"`
	DialTimeout  time.Duration `cfg:"dialTimeout" def:"5s"`
	ReadTimeout  time.Duration `cfg:"readTimeout" def:"3s"`
	WriteTimeout time.Duration `cfg:"writeTimeout" def:"3s"`
	PoolSize     int           `cfg:"poolSize" def:"100"`
}

type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStoreWithOptions(options *RedisStoreOptions) (*RedisStore, error) {
	var client redis.UniversalClient
	switch {
	case options.Endpoint != "":
		client = redis.NewClient(&redis.Options{
			Addr:         options.Endpoint,
			Username:     options.Username,
			Password:     options.Password,
			DB:           options.DB,
			MaxRetries:   options.MaxRetries,
			DialTimeout:  options.DialTimeout,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			PoolSize:     options.PoolSize,
		})
	case len(options.Endpoints) > 0:
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        options.Endpoints,
			Username:     options.Username,
			Password:     options.Password,
			MaxRetries:   options.MaxRetries,
			DialTimeout:  options.DialTimeout,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
			PoolSize:     options.PoolSize,
		})
	default:
		return nil, errors.New("endpoint or endpoints must be set")
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis.Ping failed")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis.Get failed")
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Wrap(s.client.Set(ctx, key, value, ttl).Err(), "redis.Set failed")
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	return errors.Wrap(s.client.Del(ctx, key).Err(), "redis.Del failed")
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
