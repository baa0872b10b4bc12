package entity

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/param"
)

// Statement 生成的语句及按占位符顺序排列的参数
type Statement struct {
	SQL    string
	Params []param.Param
}

// placeholders 按语句内出现顺序分配占位符，每条语句从 1 开始
type placeholders struct {
	d      dialect.Dialect
	params []param.Param
}

func (p *placeholders) next(v param.Param) string {
	p.params = append(p.params, v)
	return p.d.Placeholder(len(p.params))
}

// BuildInsert 生成 INSERT 语句
// 排除自增键、ignore、ignore_in_insert 以及键上的 ignore_in_insert，hasIdentity 表示表上存在自增键
func (mp *Mapper[T]) BuildInsert(rec *T, d dialect.Dialect) (stmt Statement, hasIdentity bool) {
	m := mp.m
	rv := reflect.ValueOf(rec).Elem()
	ph := &placeholders{d: d}

	var cols, vals []string
	for i := range m.fields {
		f := &m.fields[i]
		col := &m.table.Columns[f.column]
		if col.Ignore || col.IgnoreInInsert {
			continue
		}
		if f.key >= 0 {
			key := &m.table.Keys[f.key]
			if key.IsIdentity || key.IgnoreInInsert {
				continue
			}
		}
		cols = append(cols, col.Name)
		vals = append(vals, ph.next(f.encode(rv)))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		m.table.Name, strings.Join(cols, ", "), strings.Join(vals, ", "))
	return Statement{SQL: sql, Params: ph.params}, m.table.HasIdentity()
}

// BuildUpdate 生成 UPDATE 语句，SET 为非键列，WHERE 为键列，占位符连续编号
func (mp *Mapper[T]) BuildUpdate(rec *T, d dialect.Dialect) Statement {
	m := mp.m
	rv := reflect.ValueOf(rec).Elem()
	ph := &placeholders{d: d}

	var sets []string
	for i := range m.fields {
		f := &m.fields[i]
		col := &m.table.Columns[f.column]
		if f.key >= 0 || col.Ignore || col.IgnoreInUpdate {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = %s", col.Name, ph.next(f.encode(rv))))
	}
	wheres := mp.keyConditions(rv, ph)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		m.table.Name, strings.Join(sets, ", "), strings.Join(wheres, " AND "))
	return Statement{SQL: sql, Params: ph.params}
}

// BuildDelete 生成 DELETE 语句，条件与 UPDATE 的 WHERE 一致
func (mp *Mapper[T]) BuildDelete(rec *T, d dialect.Dialect) Statement {
	rv := reflect.ValueOf(rec).Elem()
	ph := &placeholders{d: d}
	wheres := mp.keyConditions(rv, ph)

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", mp.m.table.Name, strings.Join(wheres, " AND "))
	return Statement{SQL: sql, Params: ph.params}
}

// BuildDeleteByKey 按第一个键删除，与键的数量无关
func (mp *Mapper[T]) BuildDeleteByKey(key param.Param, d dialect.Dialect) Statement {
	column, _ := mp.m.table.FirstKey()
	if key == nil {
		key = param.Null{}
	}
	return Statement{
		SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s = %s", mp.m.table.Name, column, d.Placeholder(1)),
		Params: []param.Param{key},
	}
}

func (mp *Mapper[T]) keyConditions(rv reflect.Value, ph *placeholders) []string {
	m := mp.m
	var wheres []string
	for i := range m.fields {
		f := &m.fields[i]
		if f.key < 0 || m.table.Keys[f.key].IgnoreInUpdate {
			continue
		}
		wheres = append(wheres, fmt.Sprintf("%s = %s", m.table.Keys[f.key].Column, ph.next(f.encode(rv))))
	}
	return wheres
}
