package param

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrUnsupportedType = errors.New("unsupported parameter type")

// Kind 参数类型
type Kind int

const (
	KindNull Kind = iota
	KindInt32
	KindInt64
	KindBool
	KindText
	KindUUID
	KindDecimal
	KindTimestamp
	KindBytes
)

var kindNames = map[Kind]string{
	KindNull:      "Null",
	KindInt32:     "Int32",
	KindInt64:     "Int64",
	KindBool:      "Bool",
	KindText:      "Text",
	KindUUID:      "UUID",
	KindDecimal:   "Decimal",
	KindTimestamp: "Timestamp",
	KindBytes:     "Bytes",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Param 语句绑定值，封闭的联合类型，只有本包内的类型可以实现
type Param interface {
	Kind() Kind
	String() string
	param()
}

type Int32 int32
type Int64 int64
type Bool bool
type Text string
type UUID uuid.UUID
type Bytes []byte

type Decimal struct {
	decimal.Decimal
}

type Timestamp struct {
	time.Time
}

// Null 不携带值
type Null struct{}

func (Int32) Kind() Kind     { return KindInt32 }
func (Int64) Kind() Kind     { return KindInt64 }
func (Bool) Kind() Kind      { return KindBool }
func (Text) Kind() Kind      { return KindText }
func (UUID) Kind() Kind      { return KindUUID }
func (Decimal) Kind() Kind   { return KindDecimal }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (Bytes) Kind() Kind     { return KindBytes }
func (Null) Kind() Kind      { return KindNull }

func (p Int32) String() string     { return fmt.Sprintf("Int32(%d)", int32(p)) }
func (p Int64) String() string     { return fmt.Sprintf("Int64(%d)", int64(p)) }
func (p Bool) String() string      { return fmt.Sprintf("Bool(%t)", bool(p)) }
func (p Text) String() string      { return fmt.Sprintf("Text(%q)", string(p)) }
func (p UUID) String() string      { return fmt.Sprintf("UUID(%s)", uuid.UUID(p).String()) }
func (p Decimal) String() string   { return fmt.Sprintf("Decimal(%s)", p.Decimal.String()) }
func (p Timestamp) String() string { return fmt.Sprintf("Timestamp(%s)", p.Time.Format(time.RFC3339Nano)) }
func (p Bytes) String() string     { return fmt.Sprintf("Bytes(%x)", []byte(p)) }
func (Null) String() string        { return "Null" }

func (Int32) param()     {}
func (Int64) param()     {}
func (Bool) param()      {}
func (Text) param()      {}
func (UUID) param()      {}
func (Decimal) param()   {}
func (Timestamp) param() {}
func (Bytes) param()     {}
func (Null) param()      {}

// Of 将 Go 原生标量转换为 Param，nil 和空指针转换为 Null
func Of(v any) (Param, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Param:
		return val, nil
	case int8:
		return Int32(val), nil
	case int16:
		return Int32(val), nil
	case int32:
		return Int32(val), nil
	case uint8:
		return Int32(val), nil
	case uint16:
		return Int32(val), nil
	case int:
		return Int64(val), nil
	case int64:
		return Int64(val), nil
	case uint32:
		return Int64(val), nil
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case uuid.UUID:
		return UUID(val), nil
	case decimal.Decimal:
		return Decimal{val}, nil
	case time.Time:
		return Timestamp{val}, nil
	case []byte:
		if val == nil {
			return Null{}, nil
		}
		return Bytes(val), nil
	case *int8, *int16, *int32, *uint8, *uint16, *int, *int64, *uint32,
		*bool, *string, *uuid.UUID, *decimal.Decimal, *time.Time:
		return ofPointer(val)
	}
	return nil, errors.Wrapf(ErrUnsupportedType, "%T", v)
}

func ofPointer(v any) (Param, error) {
	switch p := v.(type) {
	case *int8:
		return deref(p)
	case *int16:
		return deref(p)
	case *int32:
		return deref(p)
	case *uint8:
		return deref(p)
	case *uint16:
		return deref(p)
	case *int:
		return deref(p)
	case *int64:
		return deref(p)
	case *uint32:
		return deref(p)
	case *bool:
		return deref(p)
	case *string:
		return deref(p)
	case *uuid.UUID:
		return deref(p)
	case *decimal.Decimal:
		return deref(p)
	case *time.Time:
		return deref(p)
	}
	return nil, errors.Wrapf(ErrUnsupportedType, "%T", v)
}

func deref[T any](p *T) (Param, error) {
	if p == nil {
		return Null{}, nil
	}
	return Of(*p)
}

// MustOf 同 Of，类型不支持时 panic
func MustOf(v any) Param {
	p, err := Of(v)
	if err != nil {
		panic(err)
	}
	return p
}
