package expr

import (
	"testing"

	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/param"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCompile(t *testing.T) {
	Convey("测试表达式编译", t, func() {
		Convey("比较运算加括号，AND 不加括号", func() {
			e := Col("E.Age").Gt(Val(30)).And(Col("E.Active").Eq(Val(true)))
			sql, params := e.ToSQL(dialect.AtP)
			So(sql, ShouldEqual, "(E.Age > @P1) AND (E.Active = @P2)")
			So(params, ShouldResemble, []param.Param{param.Int64(30), param.Bool(true)})
		})

		Convey("Dollar 方言", func() {
			e := Col("Name").Ne(Val("x")).Or(Col("Age").Le(Val(int32(5))))
			sql, params := e.ToSQL(dialect.Dollar)
			So(sql, ShouldEqual, "(Name <> $1) OR (Age <= $2)")
			So(params, ShouldResemble, []param.Param{param.Text("x"), param.Int32(5)})
		})

		Convey("列与列比较不产生参数", func() {
			sql, params := Col("E.CountryId").Eq(Col("C.CountryId")).ToSQL(dialect.Dollar)
			So(sql, ShouldEqual, "(E.CountryId = C.CountryId)")
			So(params, ShouldBeEmpty)
		})

		Convey("Like", func() {
			sql, params := Col("Name").Like(Val("J%")).ToSQL(dialect.AtP)
			So(sql, ShouldEqual, "(Name LIKE @P1)")
			So(params, ShouldResemble, []param.Param{param.Text("J%")})
		})

		Convey("In 左侧不加括号", func() {
			sql, params := Col("Id").In(Val(1), Val(2), Val(3)).ToSQL(dialect.Dollar)
			So(sql, ShouldEqual, "Id IN ($1, $2, $3)")
			So(len(params), ShouldEqual, 3)
		})

		Convey("Group", func() {
			e := Col("A").Eq(Val(1)).Or(Col("B").Eq(Val(2))).Group().And(Col("C").Ge(Val(3)))
			sql, params := e.ToSQL(dialect.AtP)
			So(sql, ShouldEqual, "((A = @P1) OR (B = @P2)) AND (C >= @P3)")
			So(len(params), ShouldEqual, 3)
		})

		Convey("序号在整个编译过程中全局递增", func() {
			prefix := []param.Param{param.Text("already")}
			sql, params := Col("A").Lt(Val(1)).Compile(dialect.AtP, prefix)
			So(sql, ShouldEqual, "(A < @P2)")
			So(params, ShouldResemble, []param.Param{param.Text("already"), param.Int64(1)})
		})

		Convey("重复编译结果一致", func() {
			e := Col("A").Like(Val("%a")).And(Col("B").In(Val("x"), Val("y")))
			sql1, params1 := e.ToSQL(dialect.Dollar)
			sql2, params2 := e.ToSQL(dialect.Dollar)
			So(sql1, ShouldEqual, "(A LIKE $1) AND B IN ($2, $3)")
			So(sql2, ShouldEqual, sql1)
			So(params2, ShouldResemble, params1)
		})

		Convey("Null 参数", func() {
			var s *string
			sql, params := Col("A").Eq(Val(s)).ToSQL(dialect.AtP)
			So(sql, ShouldEqual, "(A = @P1)")
			So(params, ShouldResemble, []param.Param{param.Null{}})
		})
	})
}

func TestMalformed(t *testing.T) {
	Convey("测试非法表达式", t, func() {
		So(func() { Col("A").Like(Col("B")) }, ShouldPanic)
		So(func() { Col("A").In(Val(1), Col("B")) }, ShouldPanic)
		So(func() { Expr{}.ToSQL(dialect.AtP) }, ShouldPanic)
		So(func() { Val(1.5) }, ShouldPanic)
		So(Expr{}.IsZero(), ShouldBeTrue)
	})
}
