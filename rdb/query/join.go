package query

import (
	"context"
	"strings"

	"github.com/hatlonely/rquery/rdb"
	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/entity"
	"github.com/hatlonely/rquery/rdb/expr"
	"github.com/hatlonely/rquery/rdb/param"
	"github.com/pkg/errors"
)

// Pair 联合查询的一行结果，外连接未匹配的一侧为 nil
type Pair[L, R any] struct {
	Left  *L
	Right *R
}

// JoinQuery 两个实体的联合查询
// 每列以 "<表名>.<列名> AS <表名>_<列名>" 选出，再按表名前缀分别解码
type JoinQuery[L, R any] struct {
	clauses
	left  *entity.Mapper[L]
	right *entity.Mapper[R]
	exec  rdb.Executor
}

// NewJoin 左表为 FROM 表，右表通过 Join 连接
func NewJoin[L, R any](d dialect.Dialect) (*JoinQuery[L, R], error) {
	left, err := entity.For[L]()
	if err != nil {
		return nil, errors.WithMessage(err, "entity.For left failed")
	}
	right, err := entity.For[R]()
	if err != nil {
		return nil, errors.WithMessage(err, "entity.For right failed")
	}
	if left.Table().Name == right.Table().Name {
		return nil, errors.Errorf("join of %s with itself is not supported", left.Table().Name)
	}
	return &JoinQuery[L, R]{
		clauses: clauses{dialect: d},
		left:    left,
		right:   right,
	}, nil
}

func (q *JoinQuery[L, R]) WithExecutor(exec rdb.Executor) *JoinQuery[L, R] {
	q.exec = exec
	return q
}

// Join 设置右表的连接方式和条件，重复调用以最后一次为准
func (q *JoinQuery[L, R]) Join(typ JoinType, on expr.Expr) *JoinQuery[L, R] {
	q.joins = []join{{typ: typ, table: q.right.Table().Name, on: on}}
	return q
}

func (q *JoinQuery[L, R]) Where(e expr.Expr) *JoinQuery[L, R] {
	q.filters = append(q.filters, e)
	return q
}

func (q *JoinQuery[L, R]) OrderBy(orderBy string) *JoinQuery[L, R] {
	q.orderBy = orderBy
	return q
}

func (q *JoinQuery[L, R]) Top(n int64) *JoinQuery[L, R] {
	q.top = max(n, 0)
	q.hasTop = true
	return q
}

func (q *JoinQuery[L, R]) ToSQL() (string, []param.Param) {
	var b strings.Builder
	q.writeSelect(&b)
	writeAliased(&b, q.left.Table().Name, q.left.Columns())
	b.WriteString(", ")
	writeAliased(&b, q.right.Table().Name, q.right.Columns())
	b.WriteString(" FROM ")
	b.WriteString(q.left.Table().Name)
	params := q.writeTail(&b, nil)
	return b.String(), params
}

func writeAliased(b *strings.Builder, table string, columns []string) {
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(table)
		b.WriteByte('.')
		b.WriteString(col)
		b.WriteString(" AS ")
		b.WriteString(table)
		b.WriteByte('_')
		b.WriteString(col)
	}
}

func (q *JoinQuery[L, R]) ToList(ctx context.Context) ([]Pair[L, R], error) {
	if q.exec == nil {
		return nil, ErrNoExecutor
	}
	if len(q.joins) == 0 {
		return nil, errors.New("join condition not set")
	}

	sql, params := q.ToSQL()
	var pairs []Pair[L, R]
	err := q.exec.Query(ctx, sql, params, func(row rdb.Row) error {
		var pair Pair[L, R]
		var err error
		if !allNull(row, q.left.Table().Name, q.left.Columns()) {
			if pair.Left, err = q.left.DecodeWithPrefix(row, q.left.Table().Name); err != nil {
				return err
			}
		}
		if !allNull(row, q.right.Table().Name, q.right.Columns()) {
			if pair.Right, err = q.right.DecodeWithPrefix(row, q.right.Table().Name); err != nil {
				return err
			}
		}
		pairs = append(pairs, pair)
		return nil
	})
	if err != nil {
		return nil, errors.WithMessage(err, "query.JoinQuery.ToList failed")
	}
	return pairs, nil
}

func (q *JoinQuery[L, R]) ToSingle(ctx context.Context) (Pair[L, R], error) {
	single := *q
	single.Top(1)
	pairs, err := single.ToList(ctx)
	if err != nil {
		return Pair[L, R]{}, err
	}
	if len(pairs) == 0 {
		return Pair[L, R]{}, rdb.ErrRecordNotFound
	}
	return pairs[0], nil
}

// allNull 外连接未匹配时该侧所有列都是 NULL
func allNull(row rdb.Row, prefix string, columns []string) bool {
	for _, col := range columns {
		if v, ok := row.Get(prefix + "_" + col); ok && v != nil {
			return false
		}
	}
	return true
}
