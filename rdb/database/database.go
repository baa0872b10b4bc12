package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hatlonely/rquery/cfg"
	"github.com/hatlonely/rquery/rdb"
	"github.com/hatlonely/rquery/rdb/dialect"
	"github.com/hatlonely/rquery/rdb/param"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
)

type Options struct {
	// Driver 驱动名：sqlserver, mssql, postgres, sqlite3
	Driver string `cfg:"driver" def:"sqlserver" validate:"oneof=sqlserver mssql postgres sqlite3"`

	// DSN 非空时直接使用，忽略下面的连接字段
	DSN      string `cfg:"dsn"`
	Host     string `cfg:"host" def:"localhost"`
	Port     string `cfg:"port"`
	Database string `cfg:"database"`
	Username string `cfg:"username"`
	Password string `cfg:"password"`

	// SSLMode 仅 postgres 使用
	SSLMode string `cfg:"sslMode" def:"disable"`

	MaxConns        int           `cfg:"maxConns" def:"10" validate:"gte=0"`
	MaxIdle         int           `cfg:"maxIdle" def:"5" validate:"gte=0"`
	ConnMaxLifetime time.Duration `cfg:"connMaxLifetime" def:"30m"`
}

// conn *sql.DB 和 *sql.Tx 的公共部分
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Database 基于 database/sql 的 rdb.Executor
type Database struct {
	db      *sql.DB
	conn    conn
	dialect dialect.Dialect
}

func NewDatabaseWithOptions(options *Options) (*Database, error) {
	if options == nil {
		return nil, errors.New("options is nil")
	}

	d, err := dialect.ForDriver(options.Driver)
	if err != nil {
		return nil, errors.WithMessage(err, "dialect.ForDriver failed")
	}
	dsn, err := buildDSN(options)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(options.Driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "sql.Open failed, driver: [%s]", options.Driver)
	}
	db.SetMaxOpenConns(options.MaxConns)
	db.SetMaxIdleConns(options.MaxIdle)
	db.SetConnMaxLifetime(options.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "db.Ping failed")
	}

	return NewDatabase(db, d), nil
}

// NewDatabaseWithConfigFile 从 yaml/toml/json 配置文件创建
func NewDatabaseWithConfigFile(filename string) (*Database, error) {
	var options Options
	if err := cfg.Load(filename, &options); err != nil {
		return nil, errors.WithMessage(err, "cfg.Load failed")
	}
	return NewDatabaseWithOptions(&options)
}

// NewDatabase 包装已打开的连接池，用于测试或调用方自行管理连接
func NewDatabase(db *sql.DB, d dialect.Dialect) *Database {
	return &Database{db: db, conn: db, dialect: d}
}

func buildDSN(options *Options) (string, error) {
	if options.DSN != "" {
		return options.DSN, nil
	}

	switch options.Driver {
	case "sqlserver", "mssql":
		port := options.Port
		if port == "" {
			port = "1433"
		}
		u := &url.URL{
			Scheme: "sqlserver",
			Host:   net.JoinHostPort(options.Host, port),
		}
		if options.Username != "" {
			u.User = url.UserPassword(options.Username, options.Password)
		}
		if options.Database != "" {
			u.RawQuery = url.Values{"database": {options.Database}}.Encode()
		}
		return u.String(), nil
	case "postgres":
		port := options.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			options.Host, port, options.Username, options.Password, options.Database, options.SSLMode), nil
	case "sqlite3":
		if options.Database == "" {
			return "", errors.New("sqlite3 requires database path")
		}
		return options.Database, nil
	}
	return "", errors.Errorf("unsupported driver: %s", options.Driver)
}

func (d *Database) Dialect() dialect.Dialect {
	return d.dialect
}

// DB 底层连接池，WithTx 传给回调的 Database 返回 nil
func (d *Database) DB() *sql.DB {
	return d.db
}

func (d *Database) Execute(ctx context.Context, query string, params []param.Param) (int64, error) {
	res, err := d.conn.ExecContext(ctx, query, driverArgs(params)...)
	if err != nil {
		return 0, errors.Wrapf(err, "ExecContext failed, sql: [%s]", query)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "RowsAffected failed")
	}
	return n, nil
}

// Query 逐行回调，回调返回错误时停止读取并原样返回该错误
func (d *Database) Query(ctx context.Context, query string, params []param.Param, fn func(rdb.Row) error) error {
	rows, err := d.conn.QueryContext(ctx, query, driverArgs(params)...)
	if err != nil {
		return errors.Wrapf(err, "QueryContext failed, sql: [%s]", query)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return errors.Wrap(err, "rows.Columns failed")
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return errors.Wrap(err, "rows.Scan failed")
		}
		row := make(rdb.MapRow, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "rows.Err")
}

// WithTx 在事务中执行 fn，fn 返回错误或 panic 时回滚
func (d *Database) WithTx(ctx context.Context, fn func(exec rdb.Executor) error) (err error) {
	if d.db == nil {
		return errors.New("nested transaction is not supported")
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "BeginTx failed")
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&Database{conn: tx, dialect: d.dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "Commit failed")
}

func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func driverArgs(params []param.Param) []any {
	args := make([]any, len(params))
	for i, p := range params {
		args[i] = driverArg(p)
	}
	return args
}

// driverArg 转换为 database/sql 可接受的值
// uuid 和 decimal 以文本传递，各驱动都能隐式转换
func driverArg(p param.Param) any {
	switch v := p.(type) {
	case param.Int32:
		return int64(v)
	case param.Int64:
		return int64(v)
	case param.Bool:
		return bool(v)
	case param.Text:
		return string(v)
	case param.UUID:
		return uuid.UUID(v).String()
	case param.Decimal:
		return v.Decimal.String()
	case param.Timestamp:
		return v.Time
	case param.Bytes:
		return []byte(v)
	case param.Null, nil:
		return nil
	}
	panic(fmt.Sprintf("unknown param type %T", p))
}
