package repository

import (
	"context"
	"time"

	"github.com/hatlonely/rquery/log"
	"github.com/hatlonely/rquery/log/logger"
	"github.com/hatlonely/rquery/rdb"
	"github.com/hatlonely/rquery/rdb/cache"
	"github.com/hatlonely/rquery/rdb/param"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

type CachedOptions struct {
	Cache cache.Options `cfg:"cache"`

	// TTL 缓存有效期
	TTL time.Duration `cfg:"ttl" def:"10m"`

	// KeyPrefix 缓存键前缀，多个服务共用 redis 时区分
	KeyPrefix string `cfg:"keyPrefix"`
}

// CachedRepository 在 Repository 的 GetByKey 前加一层读穿缓存
// Update 和 Delete 成功后删除对应缓存，缓存读写失败只记日志并回落到数据库
type CachedRepository[T any] struct {
	*Repository[T]

	store  cache.Store
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewCached[T any](exec rdb.Executor, store cache.Store, ttl time.Duration) (*CachedRepository[T], error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	repo, err := New[T](exec)
	if err != nil {
		return nil, err
	}
	return &CachedRepository[T]{
		Repository: repo,
		store:      store,
		ttl:        ttl,
		logger:     log.Default().WithGroup("cachedRepository"),
	}, nil
}

func NewCachedWithOptions[T any](exec rdb.Executor, options *CachedOptions) (*CachedRepository[T], error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}
	store, err := cache.NewStoreWithOptions(&options.Cache)
	if err != nil {
		return nil, errors.WithMessage(err, "cache.NewStoreWithOptions failed")
	}
	repo, err := NewCached[T](exec, store, options.TTL)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	repo.prefix = options.KeyPrefix
	return repo, nil
}

func (r *CachedRepository[T]) Close() error {
	return r.store.Close()
}

// cacheKey 整数键统一按 Int64 计算，GetByKey(1) 和 int32 键字段命中同一条缓存
func (r *CachedRepository[T]) cacheKey(key param.Param) string {
	if v, ok := key.(param.Int32); ok {
		key = param.Int64(v)
	}
	return r.prefix + r.mapper.Table().Name + ":" + key.String()
}

func (r *CachedRepository[T]) GetByKey(ctx context.Context, key any) (*T, error) {
	p, err := param.Of(key)
	if err != nil {
		return nil, errors.WithMessage(err, "param.Of failed")
	}
	k := r.cacheKey(p)

	buf, err := r.store.Get(ctx, k)
	switch {
	case err == nil:
		var rec T
		if err := msgpack.Unmarshal(buf, &rec); err != nil {
			r.logger.WarnContext(ctx, "cache decode failed", "key", k, "error", err.Error())
			break
		}
		return &rec, nil
	case !errors.Is(err, cache.ErrKeyNotFound):
		r.logger.WarnContext(ctx, "cache get failed", "key", k, "error", err.Error())
	}

	rec, err := r.Repository.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if buf, err := msgpack.Marshal(rec); err != nil {
		r.logger.WarnContext(ctx, "cache encode failed", "key", k, "error", err.Error())
	} else if err := r.store.Set(ctx, k, buf, r.ttl); err != nil {
		r.logger.WarnContext(ctx, "cache set failed", "key", k, "error", err.Error())
	}
	return rec, nil
}

func (r *CachedRepository[T]) Update(ctx context.Context, rec *T) (int64, error) {
	n, err := r.Repository.Update(ctx, rec)
	if err != nil {
		return n, err
	}
	if key, ok := r.mapper.Key(rec); ok {
		r.invalidate(ctx, key)
	}
	return n, nil
}

func (r *CachedRepository[T]) DeleteByEntity(ctx context.Context, rec *T) (int64, error) {
	n, err := r.Repository.DeleteByEntity(ctx, rec)
	if err != nil {
		return n, err
	}
	if key, ok := r.mapper.Key(rec); ok {
		r.invalidate(ctx, key)
	}
	return n, nil
}

func (r *CachedRepository[T]) DeleteByKey(ctx context.Context, key any) (int64, error) {
	n, err := r.Repository.DeleteByKey(ctx, key)
	if err != nil {
		return n, err
	}
	if p, err := param.Of(key); err == nil {
		r.invalidate(ctx, p)
	}
	return n, nil
}

func (r *CachedRepository[T]) invalidate(ctx context.Context, key param.Param) {
	k := r.cacheKey(key)
	if err := r.store.Del(ctx, k); err != nil {
		r.logger.WarnContext(ctx, "cache del failed", "key", k, "error", err.Error())
	}
}
