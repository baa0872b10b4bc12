package entity

import (
	"reflect"

	"github.com/hatlonely/rquery/rdb"
	"github.com/pkg/errors"
)

// Decode 按列名从行中还原实体
// 非可选字段的列缺失或为 NULL 时返回 rdb.ErrDecode，可选字段此时为 nil
// []byte 字段的 NULL 解码为 nil 切片
func (mp *Mapper[T]) Decode(row rdb.Row) (*T, error) {
	return mp.decode(row, "")
}

// DecodeWithPrefix 按 "<prefix>_<列名>" 从行中还原实体，用于多表联合查询
func (mp *Mapper[T]) DecodeWithPrefix(row rdb.Row, prefix string) (*T, error) {
	return mp.decode(row, prefix+"_")
}

func (mp *Mapper[T]) decode(row rdb.Row, prefix string) (*T, error) {
	m := mp.m
	rec := new(T)
	rv := reflect.ValueOf(rec).Elem()

	for i := range m.fields {
		f := &m.fields[i]
		name := prefix + m.table.Columns[f.column].Name
		raw, ok := row.Get(name)
		if !ok && f.optional {
			continue
		}
		if !ok {
			return nil, errors.Wrapf(rdb.ErrDecode, "%s.%s: column %s not found", m.table.Name, f.goName, name)
		}
		if err := f.assign(rv, raw); err != nil {
			return nil, errors.Wrapf(rdb.ErrDecode, "%s.%s: %v", m.table.Name, f.goName, err)
		}
	}
	return rec, nil
}
