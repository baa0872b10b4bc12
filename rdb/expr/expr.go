package expr

import (
	"fmt"
	"strings"

	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/param"
)

// Expr 表达式树，值语义，子节点由父节点独占
// 通过 Col、Val、Param 构造叶子节点，再通过方法组合
type Expr struct {
	node node
}

// node 所有表达式节点的编译接口
// 编译时把遇到的参数追加到共享的 params 中，占位符序号即追加后 params 的长度
type node interface {
	appendExpr(b *strings.Builder, d dialect.Dialect, params []param.Param) []param.Param
}

type column string

type parameter struct {
	value param.Param
}

type binary struct {
	left  Expr
	op    string
	right Expr
}

type like struct {
	left    Expr
	pattern param.Param
}

type inList struct {
	left   Expr
	values []param.Param
}

type group struct {
	inner Expr
}

// Col 列引用，原样输出，调用方负责限定和转义
func Col(name string) Expr {
	return Expr{node: column(name)}
}

// Val 绑定参数，v 必须能被 param.Of 转换，否则 panic
func Val(v any) Expr {
	return Expr{node: parameter{value: param.MustOf(v)}}
}

// Param 直接使用已构造的参数值
func Param(p param.Param) Expr {
	if p == nil {
		p = param.Null{}
	}
	return Expr{node: parameter{value: p}}
}

func (e Expr) binary(op string, right Expr) Expr {
	return Expr{node: binary{left: e, op: op, right: right}}
}

func (e Expr) Eq(right Expr) Expr  { return e.binary("=", right) }
func (e Expr) Ne(right Expr) Expr  { return e.binary("<>", right) }
func (e Expr) Gt(right Expr) Expr  { return e.binary(">", right) }
func (e Expr) Ge(right Expr) Expr  { return e.binary(">=", right) }
func (e Expr) Lt(right Expr) Expr  { return e.binary("<", right) }
func (e Expr) Le(right Expr) Expr  { return e.binary("<=", right) }
func (e Expr) And(right Expr) Expr { return e.binary("AND", right) }
func (e Expr) Or(right Expr) Expr  { return e.binary("OR", right) }

// Like pattern 必须是参数节点，否则 panic
func (e Expr) Like(pattern Expr) Expr {
	return Expr{node: like{left: e, pattern: mustParameter("Like", pattern)}}
}

// In 所有 values 必须是参数节点，否则 panic
func (e Expr) In(values ...Expr) Expr {
	ps := make([]param.Param, 0, len(values))
	for _, v := range values {
		ps = append(ps, mustParameter("In", v))
	}
	return Expr{node: inList{left: e, values: ps}}
}

// Group 加括号
func (e Expr) Group() Expr {
	return Expr{node: group{inner: e}}
}

// IsZero 是否为未初始化的表达式
func (e Expr) IsZero() bool {
	return e.node == nil
}

func mustParameter(op string, e Expr) param.Param {
	p, ok := e.node.(parameter)
	if !ok {
		panic(fmt.Sprintf("expr: %s operand must be a parameter, got %T", op, e.node))
	}
	return p.value
}

// Compile 将表达式编译为 SQL 片段，参数按遍历顺序追加到 params 后返回
func (e Expr) Compile(d dialect.Dialect, params []param.Param) (string, []param.Param) {
	var b strings.Builder
	params = e.AppendExpr(&b, d, params)
	return b.String(), params
}

// AppendExpr 将编译结果写入 b，用于在更大的语句中共享参数列表
func (e Expr) AppendExpr(b *strings.Builder, d dialect.Dialect, params []param.Param) []param.Param {
	if e.node == nil {
		panic("expr: compile of zero Expr")
	}
	return e.node.appendExpr(b, d, params)
}

// ToSQL 使用新的参数列表编译
func (e Expr) ToSQL(d dialect.Dialect) (string, []param.Param) {
	return e.Compile(d, nil)
}

func (e Expr) String() string {
	if e.node == nil {
		return "<nil>"
	}
	sql, _ := e.ToSQL(dialect.AtP)
	return sql
}

func appendParam(b *strings.Builder, d dialect.Dialect, params []param.Param, p param.Param) []param.Param {
	params = append(params, p)
	b.WriteString(d.Placeholder(len(params)))
	return params
}

func (c column) appendExpr(b *strings.Builder, _ dialect.Dialect, params []param.Param) []param.Param {
	b.WriteString(string(c))
	return params
}

func (p parameter) appendExpr(b *strings.Builder, d dialect.Dialect, params []param.Param) []param.Param {
	return appendParam(b, d, params, p.value)
}

func (n binary) appendExpr(b *strings.Builder, d dialect.Dialect, params []param.Param) []param.Param {
	// AND/OR 不加括号，比较运算整体加括号
	connective := n.op == "AND" || n.op == "OR"
	if !connective {
		b.WriteByte('(')
	}
	params = n.left.AppendExpr(b, d, params)
	b.WriteByte(' ')
	b.WriteString(n.op)
	b.WriteByte(' ')
	params = n.right.AppendExpr(b, d, params)
	if !connective {
		b.WriteByte(')')
	}
	return params
}

func (n like) appendExpr(b *strings.Builder, d dialect.Dialect, params []param.Param) []param.Param {
	b.WriteByte('(')
	params = n.left.AppendExpr(b, d, params)
	b.WriteString(" LIKE ")
	params = appendParam(b, d, params, n.pattern)
	b.WriteByte(')')
	return params
}

func (n inList) appendExpr(b *strings.Builder, d dialect.Dialect, params []param.Param) []param.Param {
	params = n.left.AppendExpr(b, d, params)
	b.WriteString(" IN (")
	for i, v := range n.values {
		if i > 0 {
			b.WriteString(", ")
		}
		params = appendParam(b, d, params, v)
	}
	b.WriteByte(')')
	return params
}

func (n group) appendExpr(b *strings.Builder, d dialect.Dialect, params []param.Param) []param.Param {
	b.WriteByte('(')
	params = n.inner.AppendExpr(b, d, params)
	b.WriteByte(')')
	return params
}
