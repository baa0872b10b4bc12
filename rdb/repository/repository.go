package repository

import (
	"context"

	"github.com/hatlonely/rquery/rdb"
	"github.com/hatlonely/rquery/rdb/entity"
	"github.com/hatlonely/rquery/rdb/expr"
	"github.com/hatlonely/rquery/rdb/param"
	"github.com/hatlonely/rquery/rdb/query"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Repository 单个实体类型的增删改查入口，可在多个 goroutine 间共享
type Repository[T any] struct {
	exec   rdb.Executor
	mapper *entity.Mapper[T]
}

func New[T any](exec rdb.Executor) (*Repository[T], error) {
	if exec == nil {
		return nil, errors.New("executor is nil")
	}
	mapper, err := entity.For[T]()
	if err != nil {
		return nil, errors.WithMessage(err, "entity.For failed")
	}
	return &Repository[T]{exec: exec, mapper: mapper}, nil
}

func (r *Repository[T]) Mapper() *entity.Mapper[T] {
	return r.mapper
}

// Select 以实体表名为 FROM 的查询，每次调用返回新的 Query
func (r *Repository[T]) Select() *query.Query[T] {
	return query.New[T](r.mapper.Table().Name, r.exec.Dialect()).WithExecutor(r.exec)
}

// GetByKey 按第一个键查询，不存在时返回 rdb.ErrRecordNotFound
func (r *Repository[T]) GetByKey(ctx context.Context, key any) (*T, error) {
	column, ok := r.mapper.Table().FirstKey()
	if !ok {
		return nil, errors.Wrapf(rdb.ErrNoKey, "table %s", r.mapper.Table().Name)
	}
	p, err := param.Of(key)
	if err != nil {
		return nil, errors.WithMessage(err, "param.Of failed")
	}
	return r.Select().
		Where(expr.Col(r.mapper.Table().Name + "." + column).Eq(expr.Param(p))).
		ToSingle(ctx)
}

// Insert 校验失败时返回 *entity.ValidationError，不访问数据库
func (r *Repository[T]) Insert(ctx context.Context, rec *T) (int64, error) {
	if err := r.mapper.ValidateError(rec); err != nil {
		return 0, err
	}
	stmt, _ := r.mapper.BuildInsert(rec, r.exec.Dialect())
	n, err := r.exec.Execute(ctx, stmt.SQL, stmt.Params)
	if err != nil {
		return 0, errors.WithMessagef(err, "insert into %s failed", r.mapper.Table().Name)
	}
	return n, nil
}

func (r *Repository[T]) Update(ctx context.Context, rec *T) (int64, error) {
	if err := r.mapper.ValidateError(rec); err != nil {
		return 0, err
	}
	if len(r.mapper.Table().Keys) == 0 {
		return 0, errors.Wrapf(rdb.ErrNoKey, "table %s", r.mapper.Table().Name)
	}
	stmt := r.mapper.BuildUpdate(rec, r.exec.Dialect())
	n, err := r.exec.Execute(ctx, stmt.SQL, stmt.Params)
	if err != nil {
		return 0, errors.WithMessagef(err, "update %s failed", r.mapper.Table().Name)
	}
	return n, nil
}

func (r *Repository[T]) DeleteByEntity(ctx context.Context, rec *T) (int64, error) {
	if len(r.mapper.Table().Keys) == 0 {
		return 0, errors.Wrapf(rdb.ErrNoKey, "table %s", r.mapper.Table().Name)
	}
	stmt := r.mapper.BuildDelete(rec, r.exec.Dialect())
	n, err := r.exec.Execute(ctx, stmt.SQL, stmt.Params)
	if err != nil {
		return 0, errors.WithMessagef(err, "delete from %s failed", r.mapper.Table().Name)
	}
	return n, nil
}

func (r *Repository[T]) DeleteByKey(ctx context.Context, key any) (int64, error) {
	if _, ok := r.mapper.Table().FirstKey(); !ok {
		return 0, errors.Wrapf(rdb.ErrNoKey, "table %s", r.mapper.Table().Name)
	}
	p, err := param.Of(key)
	if err != nil {
		return 0, errors.WithMessage(err, "param.Of failed")
	}
	stmt := r.mapper.BuildDeleteByKey(p, r.exec.Dialect())
	n, err := r.exec.Execute(ctx, stmt.SQL, stmt.Params)
	if err != nil {
		return 0, errors.WithMessagef(err, "delete from %s failed", r.mapper.Table().Name)
	}
	return n, nil
}

// BatchInsert 先校验全部记录，任何一条失败都不写入；之后最多 concurrency 条并发插入
// 插入失败时未开始的记录不再执行，已完成的不回滚，需要原子性时在事务中调用
func (r *Repository[T]) BatchInsert(ctx context.Context, recs []*T, concurrency int) (int64, error) {
	for i, rec := range recs {
		if err := r.mapper.ValidateError(rec); err != nil {
			return 0, errors.WithMessagef(err, "record %d", i)
		}
	}

	affected := make([]int64, len(recs))
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stmt, _ := r.mapper.BuildInsert(rec, r.exec.Dialect())
			n, err := r.exec.Execute(ctx, stmt.SQL, stmt.Params)
			if err != nil {
				return errors.WithMessagef(err, "insert record %d into %s failed", i, r.mapper.Table().Name)
			}
			affected[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, n := range affected {
		total += n
	}
	return total, nil
}
