package entity

import (
	"testing"
	"time"

	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/param"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildInsert(t *testing.T) {
	Convey("测试 BuildInsert 方法", t, func() {
		hire := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
		emp := &Employee{EmployeeID: 0, FirstName: "John", LastName: "Doe", Age: 30, HireDate: hire}
		m := MustRegister[Employee]()

		Convey("排除自增键", func() {
			stmt, hasIdentity := m.BuildInsert(emp, dialect.Dollar)
			So(stmt.SQL, ShouldEqual, "INSERT INTO Employees (first_name, last_name, age, hire_date) VALUES ($1, $2, $3, $4)")
			So(hasIdentity, ShouldBeTrue)
			So(len(stmt.Params), ShouldEqual, 4)
			So(stmt.Params[0], ShouldEqual, param.Text("John"))
			So(stmt.Params[2], ShouldEqual, param.Int32(30))
			So(stmt.Params[3].(param.Timestamp).Equal(hire), ShouldBeTrue)
		})

		Convey("AtP 方言", func() {
			stmt, _ := m.BuildInsert(emp, dialect.AtP)
			So(stmt.SQL, ShouldEqual, "INSERT INTO Employees (first_name, last_name, age, hire_date) VALUES (@P1, @P2, @P3, @P4)")
		})

		Convey("ignore 和 ignore_in_insert", func() {
			note := "fragile"
			line := &OrderLine{OrderID: 7, LineNo: 2, Sku: "A-1", Qty: 3, Note: &note}
			stmt, hasIdentity := MustRegister[OrderLine]().BuildInsert(line, dialect.AtP)
			So(stmt.SQL, ShouldEqual, "INSERT INTO OrderLine (OrderId, LineNo, Sku, Qty) VALUES (@P1, @P2, @P3, @P4)")
			So(hasIdentity, ShouldBeFalse)
			So(stmt.Params, ShouldResemble, []param.Param{param.Int64(7), param.Int32(2), param.Text("A-1"), param.Int32(3)})
		})

		Convey("可选字段为空时绑定 Null", func() {
			s := &Session{}
			stmt, _ := MustRegister[Session]().BuildInsert(s, dialect.Dollar)
			So(stmt.SQL, ShouldEqual, "INSERT INTO Session (SessionId, Data, Amount, Active, Expires) VALUES ($1, $2, $3, $4, $5)")
			So(stmt.Params[1], ShouldEqual, param.Null{})
			So(stmt.Params[4], ShouldEqual, param.Null{})
		})

		Convey("没有可插入的列时仍生成语句", func() {
			type OnlyIdentity struct {
				ID int64 `key:"Id,identity"`
			}
			stmt, hasIdentity := MustRegister[OnlyIdentity]().BuildInsert(&OnlyIdentity{}, dialect.AtP)
			So(stmt.SQL, ShouldEqual, "INSERT INTO OnlyIdentity () VALUES ()")
			So(stmt.Params, ShouldBeEmpty)
			So(hasIdentity, ShouldBeTrue)
		})
	})
}

func TestBuildUpdate(t *testing.T) {
	Convey("测试 BuildUpdate 方法", t, func() {
		Convey("SET 之后 WHERE，编号连续", func() {
			emp := &Employee{EmployeeID: 9, FirstName: "Ann", LastName: "Lee", Age: 41}
			stmt := MustRegister[Employee]().BuildUpdate(emp, dialect.AtP)
			So(stmt.SQL, ShouldEqual, "UPDATE Employees SET first_name = @P1, last_name = @P2, age = @P3, hire_date = @P4 WHERE employee_id = @P5")
			So(len(stmt.Params), ShouldEqual, 5)
			So(stmt.Params[4], ShouldEqual, param.Int32(9))
		})

		Convey("ignore_in_update 和键上的 ignore_in_update", func() {
			created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
			line := &OrderLine{OrderID: 7, LineNo: 2, Sku: "A-1", Qty: 5, Created: created}
			stmt := MustRegister[OrderLine]().BuildUpdate(line, dialect.Dollar)
			So(stmt.SQL, ShouldEqual, "UPDATE OrderLine SET Qty = $1, Created = $2 WHERE OrderId = $3")
			So(stmt.Params[0], ShouldEqual, param.Int32(5))
			So(stmt.Params[2], ShouldEqual, param.Int64(7))
		})
	})
}

func TestBuildDelete(t *testing.T) {
	Convey("测试 BuildDelete 方法", t, func() {
		stmt := MustRegister[Employee]().BuildDelete(&Employee{EmployeeID: 3}, dialect.Dollar)
		So(stmt.SQL, ShouldEqual, "DELETE FROM Employees WHERE employee_id = $1")
		So(stmt.Params, ShouldResemble, []param.Param{param.Int32(3)})

		stmt = MustRegister[OrderLine]().BuildDelete(&OrderLine{OrderID: 7, LineNo: 2}, dialect.AtP)
		So(stmt.SQL, ShouldEqual, "DELETE FROM OrderLine WHERE OrderId = @P1")
	})
}

func TestBuildDeleteByKey(t *testing.T) {
	Convey("测试 BuildDeleteByKey 方法", t, func() {
		Convey("总是使用第一个键", func() {
			m := MustRegister[OrderLine]()
			stmt := m.BuildDeleteByKey(param.Int64(7), dialect.AtP)
			So(stmt.SQL, ShouldEqual, "DELETE FROM OrderLine WHERE OrderId = @P1")
			So(stmt.Params, ShouldResemble, []param.Param{param.Int64(7)})

			stmt = m.BuildDeleteByKey(param.Int64(7), dialect.Dollar)
			So(stmt.SQL, ShouldEqual, "DELETE FROM OrderLine WHERE OrderId = $1")
		})

		Convey("使用表名，不带 schema", func() {
			stmt := MustRegister[Country]().BuildDeleteByKey(param.Text("MX"), dialect.Dollar)
			So(stmt.SQL, ShouldEqual, "DELETE FROM Countries WHERE CountryId = $1")
		})
	})
}
