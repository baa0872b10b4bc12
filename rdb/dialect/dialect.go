package dialect

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Dialect 占位符与行数限制的 SQL 方言
//   - AtP: @P1, @P2 ...，行数限制为 SELECT TOP(n)
//   - Dollar: $1, $2 ...，行数限制为末尾的 LIMIT n
type Dialect int

const (
	AtP Dialect = iota + 1
	Dollar
)

func (d Dialect) Placeholder(n int) string {
	switch d {
	case AtP:
		return "@P" + strconv.Itoa(n)
	case Dollar:
		return "$" + strconv.Itoa(n)
	}
	panic("dialect: unknown dialect " + strconv.Itoa(int(d)))
}

func (d Dialect) String() string {
	switch d {
	case AtP:
		return "atp"
	case Dollar:
		return "dollar"
	}
	return "unknown"
}

// ForDriver 根据 database/sql 驱动名返回方言
func ForDriver(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlserver", "mssql":
		return AtP, nil
	case "postgres", "pgx", "sqlite3":
		return Dollar, nil
	}
	return 0, errors.Errorf("unsupported driver: %s", driver)
}
