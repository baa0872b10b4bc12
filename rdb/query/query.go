package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hatlonely/rquery/rdb"
	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/entity"
	"github.com/hatlonely/rquery/rdb/expr"
	"github.com/hatlonely/rquery/rdb/param"
	"github.com/pkg/errors"
)

var ErrNoExecutor = errors.New("query has no executor")

// JoinType 连接类型
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

func (j JoinType) String() string {
	switch j {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullJoin:
		return "FULL JOIN"
	}
	return "INNER JOIN"
}

type join struct {
	typ   JoinType
	table string
	on    expr.Expr
}

// clauses 单表查询和联合查询共用的 FROM 之后的部分
type clauses struct {
	dialect dialect.Dialect
	joins   []join
	filters []expr.Expr
	orderBy string
	top     int64
	hasTop  bool
}

// writeSelect 写入 SELECT 和 TOP(n)，TOP 只用于 AtP 方言
func (c *clauses) writeSelect(b *strings.Builder) {
	b.WriteString("SELECT ")
	if c.hasTop && c.dialect == dialect.AtP {
		b.WriteString("TOP(")
		b.WriteString(strconv.FormatInt(c.top, 10))
		b.WriteString(") ")
	}
}

// writeTail 依次写入 JOIN、WHERE、ORDER BY 和 LIMIT，JOIN 的参数先于 WHERE 编号
func (c *clauses) writeTail(b *strings.Builder, params []param.Param) []param.Param {
	for _, j := range c.joins {
		b.WriteByte(' ')
		b.WriteString(j.typ.String())
		b.WriteByte(' ')
		b.WriteString(j.table)
		b.WriteString(" ON ")
		params = j.on.AppendExpr(b, c.dialect, params)
	}
	for i, f := range c.filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		params = f.AppendExpr(b, c.dialect, params)
	}
	if c.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(c.orderBy)
	}
	if c.hasTop && c.dialect == dialect.Dollar {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(c.top, 10))
	}
	return params
}

// Query 单实体查询构建器，方法修改自身并返回自身，不要在多个 goroutine 间共享
type Query[T any] struct {
	clauses
	table string
	exec  rdb.Executor
}

func New[T any](table string, d dialect.Dialect) *Query[T] {
	return &Query[T]{
		clauses: clauses{dialect: d},
		table:   table,
	}
}

// WithExecutor 设置执行器，未设置时只能生成 SQL
func (q *Query[T]) WithExecutor(exec rdb.Executor) *Query[T] {
	q.exec = exec
	return q
}

func (q *Query[T]) Join(typ JoinType, table string, on expr.Expr) *Query[T] {
	q.joins = append(q.joins, join{typ: typ, table: table, on: on})
	return q
}

// Where 多次调用以 AND 连接
func (q *Query[T]) Where(e expr.Expr) *Query[T] {
	q.filters = append(q.filters, e)
	return q
}

// OrderBy 原样输出，如 "Employees.HireDate DESC"
func (q *Query[T]) OrderBy(orderBy string) *Query[T] {
	q.orderBy = orderBy
	return q
}

// Top 限制返回行数，负数按 0 处理
func (q *Query[T]) Top(n int64) *Query[T] {
	q.top = max(n, 0)
	q.hasTop = true
	return q
}

func (q *Query[T]) ToSQL() (string, []param.Param) {
	var b strings.Builder
	q.writeSelect(&b)
	b.WriteString("* FROM ")
	b.WriteString(q.table)
	params := q.writeTail(&b, nil)
	return b.String(), params
}

// ToList 执行查询并逐行解码，解码失败即返回
func (q *Query[T]) ToList(ctx context.Context) ([]*T, error) {
	if q.exec == nil {
		return nil, ErrNoExecutor
	}
	mapper, err := entity.For[T]()
	if err != nil {
		return nil, errors.WithMessage(err, "entity.For failed")
	}

	sql, params := q.ToSQL()
	var records []*T
	err = q.exec.Query(ctx, sql, params, func(row rdb.Row) error {
		rec, err := mapper.Decode(row)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, errors.WithMessage(err, "query.ToList failed")
	}
	return records, nil
}

// ToSingle 以 Top(1) 执行，无结果时返回 rdb.ErrRecordNotFound
func (q *Query[T]) ToSingle(ctx context.Context) (*T, error) {
	single := *q
	single.Top(1)
	records, err := single.ToList(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, rdb.ErrRecordNotFound
	}
	return records[0], nil
}

// ToMapInt 按整数键组织结果，键相同时后出现的覆盖先出现的
func (q *Query[T]) ToMapInt(ctx context.Context) (map[int64]*T, error) {
	return toMap(ctx, q, entity.KeyInt, (*entity.Mapper[T]).KeyInt)
}

func (q *Query[T]) ToMapString(ctx context.Context) (map[string]*T, error) {
	return toMap(ctx, q, entity.KeyString, (*entity.Mapper[T]).KeyString)
}

func (q *Query[T]) ToMapUUID(ctx context.Context) (map[uuid.UUID]*T, error) {
	return toMap(ctx, q, entity.KeyUUID, (*entity.Mapper[T]).KeyUUID)
}

func toMap[T any, K comparable](ctx context.Context, q *Query[T], want entity.KeyKind, key func(*entity.Mapper[T], *T) (K, bool)) (map[K]*T, error) {
	mapper, err := entity.For[T]()
	if err != nil {
		return nil, errors.WithMessage(err, "entity.For failed")
	}
	if mapper.KeyKind() != want {
		return nil, errors.Wrapf(rdb.ErrKeyCapability, "%s key is %s, want %s", mapper.Table().Name, mapper.KeyKind(), want)
	}

	records, err := q.ToList(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[K]*T, len(records))
	for _, rec := range records {
		k, _ := key(mapper, rec)
		result[k] = rec
	}
	return result, nil
}
