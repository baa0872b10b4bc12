package entity

import (
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hatlonely/rquery/rdb/param"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
)

// field 非关系字段的描述，注册时确定，之后只读
type field struct {
	index    []int
	goName   string
	column   int // TableMeta.Columns 下标
	key      int // TableMeta.Keys 下标，-1 表示非键
	kind     param.Kind
	typ      reflect.Type // 去掉指针后的类型
	optional bool
	decode   converter
}

// converter 将驱动返回的非 NULL 值转换为字段的基础类型
type converter func(v any) (reflect.Value, error)

// semanticKind 根据 Go 类型确定语义类型，不支持的类型返回错误
func semanticKind(rt reflect.Type) (param.Kind, error) {
	switch {
	case rt == uuidType || rt.ConvertibleTo(uuidType) && rt.Kind() == reflect.Array:
		return param.KindUUID, nil
	case rt == decimalType:
		return param.KindDecimal, nil
	case rt == timeType:
		return param.KindTimestamp, nil
	case rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8:
		return param.KindBytes, nil
	}

	switch rt.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return param.KindInt32, nil
	case reflect.Int, reflect.Int64, reflect.Uint32:
		return param.KindInt64, nil
	case reflect.Bool:
		return param.KindBool, nil
	case reflect.String:
		return param.KindText, nil
	}
	return param.KindNull, errors.Errorf("unsupported field type %s", rt)
}

// encode 读取字段值并转换为 Param
func (f *field) encode(rv reflect.Value) param.Param {
	v := rv.FieldByIndex(f.index)
	if f.optional {
		if v.IsNil() {
			return param.Null{}
		}
		v = v.Elem()
	}

	switch f.kind {
	case param.KindInt32:
		if v.CanInt() {
			return param.Int32(v.Int())
		}
		return param.Int32(v.Uint())
	case param.KindInt64:
		if v.CanInt() {
			return param.Int64(v.Int())
		}
		return param.Int64(v.Uint())
	case param.KindBool:
		return param.Bool(v.Bool())
	case param.KindText:
		return param.Text(v.String())
	case param.KindUUID:
		return param.UUID(v.Convert(uuidType).Interface().(uuid.UUID))
	case param.KindDecimal:
		return param.Decimal{Decimal: v.Interface().(decimal.Decimal)}
	case param.KindTimestamp:
		return param.Timestamp{Time: v.Interface().(time.Time)}
	case param.KindBytes:
		if v.IsNil() {
			return param.Null{}
		}
		return param.Bytes(v.Bytes())
	}
	return param.Null{}
}

// text 读取文本字段，present 为 false 表示可选字段为空
func (f *field) text(rv reflect.Value) (value string, present bool) {
	v := rv.FieldByIndex(f.index)
	if f.optional {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}
	return v.String(), true
}

// assign 将驱动值写入字段，nil 表示 NULL
func (f *field) assign(rv reflect.Value, raw any) error {
	dst := rv.FieldByIndex(f.index)
	if raw == nil {
		// nil 切片编码为 NULL，解码时还原为 nil
		if !f.optional && f.kind != param.KindBytes {
			return errors.New("unexpected NULL")
		}
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	v, err := f.decode(raw)
	if err != nil {
		return err
	}
	if f.optional {
		ptr := reflect.New(f.typ)
		ptr.Elem().Set(v)
		dst.Set(ptr)
		return nil
	}
	dst.Set(v)
	return nil
}

func newConverter(kind param.Kind, rt reflect.Type) converter {
	switch kind {
	case param.KindInt32, param.KindInt64:
		return func(v any) (reflect.Value, error) {
			n, err := toInt64(v)
			if err != nil {
				return reflect.Value{}, err
			}
			out := reflect.New(rt).Elem()
			if out.CanInt() {
				if out.OverflowInt(n) {
					return reflect.Value{}, errors.Errorf("value %d overflows %s", n, rt)
				}
				out.SetInt(n)
			} else {
				if n < 0 || out.OverflowUint(uint64(n)) {
					return reflect.Value{}, errors.Errorf("value %d overflows %s", n, rt)
				}
				out.SetUint(uint64(n))
			}
			return out, nil
		}
	case param.KindBool:
		return func(v any) (reflect.Value, error) {
			var b bool
			switch val := v.(type) {
			case bool:
				b = val
			case int64:
				b = val != 0
			case []byte:
				parsed, err := strconv.ParseBool(string(val))
				if err != nil {
					return reflect.Value{}, errors.Errorf("cannot convert %q to bool", val)
				}
				b = parsed
			default:
				return reflect.Value{}, errors.Errorf("cannot convert %T to bool", v)
			}
			return reflect.ValueOf(b).Convert(rt), nil
		}
	case param.KindText:
		return func(v any) (reflect.Value, error) {
			switch val := v.(type) {
			case string:
				return reflect.ValueOf(val).Convert(rt), nil
			case []byte:
				return reflect.ValueOf(string(val)).Convert(rt), nil
			}
			return reflect.Value{}, errors.Errorf("cannot convert %T to string", v)
		}
	case param.KindUUID:
		return func(v any) (reflect.Value, error) {
			var id uuid.UUID
			var err error
			switch val := v.(type) {
			case uuid.UUID:
				id = val
			case string:
				id, err = uuid.Parse(val)
			case []byte:
				if len(val) == 16 {
					id, err = uuid.FromBytes(val)
				} else {
					id, err = uuid.ParseBytes(val)
				}
			default:
				err = errors.Errorf("cannot convert %T to uuid", v)
			}
			if err != nil {
				return reflect.Value{}, errors.Wrap(err, "uuid.Parse failed")
			}
			return reflect.ValueOf(id).Convert(rt), nil
		}
	case param.KindDecimal:
		return func(v any) (reflect.Value, error) {
			var d decimal.Decimal
			var err error
			switch val := v.(type) {
			case string:
				d, err = decimal.NewFromString(val)
			case []byte:
				d, err = decimal.NewFromString(string(val))
			case float64:
				d = decimal.NewFromFloat(val)
			case int64:
				d = decimal.NewFromInt(val)
			default:
				err = errors.Errorf("cannot convert %T to decimal", v)
			}
			if err != nil {
				return reflect.Value{}, errors.Wrap(err, "decimal.NewFromString failed")
			}
			return reflect.ValueOf(d), nil
		}
	case param.KindTimestamp:
		return func(v any) (reflect.Value, error) {
			switch val := v.(type) {
			case time.Time:
				return reflect.ValueOf(val), nil
			case string:
				t, err := parseTime(val)
				if err != nil {
					return reflect.Value{}, err
				}
				return reflect.ValueOf(t), nil
			case []byte:
				t, err := parseTime(string(val))
				if err != nil {
					return reflect.Value{}, err
				}
				return reflect.ValueOf(t), nil
			}
			return reflect.Value{}, errors.Errorf("cannot convert %T to time", v)
		}
	case param.KindBytes:
		return func(v any) (reflect.Value, error) {
			switch val := v.(type) {
			case []byte:
				return reflect.ValueOf(append([]byte(nil), val...)).Convert(rt), nil
			case string:
				return reflect.ValueOf([]byte(val)).Convert(rt), nil
			}
			return reflect.Value{}, errors.Errorf("cannot convert %T to bytes", v)
		}
	}
	return func(v any) (reflect.Value, error) {
		return reflect.Value{}, errors.Errorf("unsupported kind %s", kind)
	}
}

func toInt64(v any) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case int32:
		return int64(val), nil
	case int:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case []byte:
		n, err := strconv.ParseInt(string(val), 10, 64)
		if err != nil {
			return 0, errors.Errorf("cannot convert %q to integer", val)
		}
		return n, nil
	}
	return 0, errors.Errorf("cannot convert %T to integer", v)
}

var timeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("cannot parse time string %q", s)
}
