package rdb

import (
	"context"

	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/param"
	"github.com/pkg/errors"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDecode         = errors.New("decode failed")
	ErrNoKey          = errors.New("entity has no key")
	ErrKeyCapability  = errors.New("key capability mismatch")
)

// Row 一行查询结果，按列名取值
// ok 为 false 表示列不存在，值为 nil 表示 NULL
type Row interface {
	Get(column string) (value any, ok bool)
}

// MapRow 基于 map 的 Row 实现
type MapRow map[string]any

func (r MapRow) Get(column string) (any, bool) {
	v, ok := r[column]
	return v, ok
}

// Executor 语句执行接口，由传输层实现
type Executor interface {
	// Dialect 执行器期望的占位符方言
	Dialect() dialect.Dialect

	// Execute 执行语句，返回影响行数
	Execute(ctx context.Context, sql string, params []param.Param) (int64, error)

	// Query 执行查询，逐行回调 fn，fn 返回错误时停止
	Query(ctx context.Context, sql string, params []param.Param, fn func(Row) error) error
}
