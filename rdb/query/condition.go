package query

import (
	"strings"

	"github.com/hatlonely/rquery/rdb/expr"
)

// Condition 可以转换为表达式的结构化查询条件，可由配置或 JSON 构造后传给 Where
type Condition interface {
	Expr() expr.Expr
}

// always 空条件，编译为 (1 = 1)
var always = expr.Col("1").Eq(expr.Col("1"))

// TermQuery 精确匹配
type TermQuery struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (q *TermQuery) Expr() expr.Expr {
	return expr.Col(q.Field).Eq(expr.Val(q.Value))
}

// TermsQuery 多值匹配，编译为 IN
type TermsQuery struct {
	Field  string `json:"field"`
	Values []any  `json:"values"`
}

func (q *TermsQuery) Expr() expr.Expr {
	if len(q.Values) == 0 {
		return always
	}
	values := make([]expr.Expr, 0, len(q.Values))
	for _, v := range q.Values {
		values = append(values, expr.Val(v))
	}
	return expr.Col(q.Field).In(values...)
}

// RangeQuery 范围查询，未设置的边界忽略
type RangeQuery struct {
	Field string `json:"field"`
	Gt    any    `json:"gt,omitempty"`
	Gte   any    `json:"gte,omitempty"`
	Lt    any    `json:"lt,omitempty"`
	Lte   any    `json:"lte,omitempty"`
}

func (q *RangeQuery) Expr() expr.Expr {
	var conditions []expr.Expr
	col := expr.Col(q.Field)
	if q.Gt != nil {
		conditions = append(conditions, col.Gt(expr.Val(q.Gt)))
	}
	if q.Gte != nil {
		conditions = append(conditions, col.Ge(expr.Val(q.Gte)))
	}
	if q.Lt != nil {
		conditions = append(conditions, col.Lt(expr.Val(q.Lt)))
	}
	if q.Lte != nil {
		conditions = append(conditions, col.Le(expr.Val(q.Lte)))
	}
	return chain(conditions, expr.Expr.And)
}

// PrefixQuery 前缀匹配
type PrefixQuery struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (q *PrefixQuery) Expr() expr.Expr {
	return expr.Col(q.Field).Like(expr.Val(q.Value + "%"))
}

// WildcardQuery 通配符匹配，* 匹配任意数量字符，? 匹配单个字符
type WildcardQuery struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (q *WildcardQuery) Expr() expr.Expr {
	pattern := strings.ReplaceAll(q.Value, "*", "%")
	pattern = strings.ReplaceAll(pattern, "?", "_")
	return expr.Col(q.Field).Like(expr.Val(pattern))
}

// MatchQuery 包含匹配
type MatchQuery struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (q *MatchQuery) Expr() expr.Expr {
	return expr.Col(q.Field).Like(expr.Val("%" + q.Value + "%"))
}

// BoolQuery 组合条件，Must 和 Filter 以 AND 连接，Should 以 OR 连接后整体加括号
type BoolQuery struct {
	Must   []Condition `json:"must,omitempty"`
	Filter []Condition `json:"filter,omitempty"`
	Should []Condition `json:"should,omitempty"`
}

func (q *BoolQuery) Expr() expr.Expr {
	var conditions []expr.Expr
	for _, c := range q.Must {
		conditions = append(conditions, c.Expr())
	}
	for _, c := range q.Filter {
		conditions = append(conditions, c.Expr())
	}
	if len(q.Should) > 0 {
		should := make([]expr.Expr, 0, len(q.Should))
		for _, c := range q.Should {
			should = append(should, c.Expr())
		}
		conditions = append(conditions, chain(should, expr.Expr.Or).Group())
	}
	return chain(conditions, expr.Expr.And)
}

func chain(conditions []expr.Expr, op func(expr.Expr, expr.Expr) expr.Expr) expr.Expr {
	if len(conditions) == 0 {
		return always
	}
	result := conditions[0]
	for _, c := range conditions[1:] {
		result = op(result, c)
	}
	return result
}

// Filter 将结构化条件加入 WHERE
func (q *Query[T]) Filter(c Condition) *Query[T] {
	return q.Where(c.Expr())
}
