package entity

import (
	"reflect"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/hatlonely/rquery/rdb/param"
	"github.com/pkg/errors"
)

var ErrInvalidDeclaration = errors.New("invalid entity declaration")

// Tabler 自定义表名
type Tabler interface {
	TableName() string
}

// Schemer 自定义 schema
type Schemer interface {
	TableSchema() string
}

// mapping 实体类型注册后得到的全部产物：表元数据、语句生成、校验和行解码所需的字段信息
type mapping struct {
	typ      reflect.Type
	table    TableMeta
	fields   []field
	byGoName map[string]int
	regexes  []*regexp.Regexp // 与 TableMeta.Columns 一一对应
	firstKey int              // fields 下标，-1 表示无键
	keyKind  KeyKind
}

var registry sync.Map // reflect.Type -> *mapping

// Mapper 实体类型 T 的元数据和派生操作
type Mapper[T any] struct {
	m *mapping
}

// Register 注册实体类型，重复注册返回同一份元数据
func Register[T any]() (*Mapper[T], error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if m, ok := registry.Load(rt); ok {
		return &Mapper[T]{m: m.(*mapping)}, nil
	}

	m, err := derive(rt)
	if err != nil {
		return nil, errors.WithMessagef(err, "entity.Register %s failed", rt)
	}

	actual, _ := registry.LoadOrStore(rt, m)
	return &Mapper[T]{m: actual.(*mapping)}, nil
}

// MustRegister 注册失败时 panic，用于包级变量初始化
func MustRegister[T any]() *Mapper[T] {
	mapper, err := Register[T]()
	if err != nil {
		panic(err)
	}
	return mapper
}

// For 获取实体类型的 Mapper，未注册时先注册
func For[T any]() (*Mapper[T], error) {
	return Register[T]()
}

func derive(rt reflect.Type) (*mapping, error) {
	if rt.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrInvalidDeclaration, "expected struct, got %s", rt)
	}

	name, schema, err := parseTableTag(rt)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidDeclaration, "table tag: %v", err)
	}

	zero := reflect.New(rt).Interface()
	if t, ok := zero.(Tabler); ok {
		name = t.TableName()
	}
	if s, ok := zero.(Schemer); ok {
		schema = s.TableSchema()
	}
	if name == "" {
		name = rt.Name()
	}

	m := &mapping{
		typ:      rt,
		table:    TableMeta{Name: name, Schema: schema},
		byGoName: map[string]int{},
		firstKey: -1,
	}
	columns := map[string]bool{}

	fields, err := columnFields(rt, nil)
	if err != nil {
		return nil, err
	}
	for _, sf := range fields {

		if tag, ok := sf.Tag.Lookup("relation"); ok {
			rel, err := parseRelationTag(sf, tag)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidDeclaration, "field %s: %v", sf.Name, err)
			}
			m.table.Relations = append(m.table.Relations, rel)
			continue
		}

		f, col, key, err := deriveField(sf)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidDeclaration, "field %s: %v", sf.Name, err)
		}
		if columns[col.Name] {
			return nil, errors.Wrapf(ErrInvalidDeclaration, "duplicate column %s", col.Name)
		}
		columns[col.Name] = true

		var re *regexp.Regexp
		if col.Regex != "" {
			if re, err = regexp.Compile(col.Regex); err != nil {
				return nil, errors.Wrapf(ErrInvalidDeclaration, "field %s: invalid regex: %v", sf.Name, err)
			}
		}

		f.column = len(m.table.Columns)
		m.table.Columns = append(m.table.Columns, col)
		m.regexes = append(m.regexes, re)
		if key != nil {
			f.key = len(m.table.Keys)
			m.table.Keys = append(m.table.Keys, *key)
			if m.firstKey < 0 {
				m.firstKey = len(m.fields)
				m.keyKind = keyKindOf(f.kind)
			}
		}
		m.byGoName[sf.Name] = len(m.fields)
		m.fields = append(m.fields, f)
	}

	return m, nil
}

// columnFields 展开嵌入结构体，返回带完整 Index 的可映射字段
// 嵌入的结构体指针可能为 nil，不支持
func columnFields(rt reflect.Type, prefix []int) ([]reflect.StructField, error) {
	var fields []reflect.StructField
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.Tag.Get("column") == "-" {
			continue
		}
		sf.Index = append(append([]int{}, prefix...), i)

		if sf.Anonymous {
			t := sf.Type
			if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
				return nil, errors.Wrapf(ErrInvalidDeclaration, "field %s: embedded pointer %s", sf.Name, t)
			}
			if _, err := semanticKind(t); err != nil && t.Kind() == reflect.Struct {
				embedded, err := columnFields(t, sf.Index)
				if err != nil {
					return nil, err
				}
				fields = append(fields, embedded...)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		fields = append(fields, sf)
	}
	return fields, nil
}

func deriveField(sf reflect.StructField) (field, ColumnMeta, *KeyMeta, error) {
	f := field{index: sf.Index, goName: sf.Name, key: -1, typ: sf.Type}
	if sf.Type.Kind() == reflect.Ptr {
		f.optional = true
		f.typ = sf.Type.Elem()
	}

	kind, err := semanticKind(f.typ)
	if err != nil {
		return f, ColumnMeta{}, nil, err
	}
	f.kind = kind
	f.decode = newConverter(kind, f.typ)

	col := ColumnMeta{Name: sf.Name}
	if err := parseColumnTag(sf, &col); err != nil {
		return f, col, nil, err
	}

	tag, ok := sf.Tag.Lookup("key")
	if !ok {
		return f, col, nil, nil
	}
	key := &KeyMeta{Column: col.Name}
	if err := parseKeyTag(tag, key); err != nil {
		return f, col, nil, err
	}
	col.Name = key.Column
	return f, col, key, nil
}

func keyKindOf(kind param.Kind) KeyKind {
	switch kind {
	case param.KindInt32, param.KindInt64:
		return KeyInt
	case param.KindText:
		return KeyString
	case param.KindUUID:
		return KeyUUID
	}
	return KeyNone
}

// Table 表元数据
func (mp *Mapper[T]) Table() *TableMeta {
	return &mp.m.table
}

// ColumnName 返回 Go 字段对应的列名，字段不存在时返回空字符串
func (mp *Mapper[T]) ColumnName(goField string) string {
	idx, ok := mp.m.byGoName[goField]
	if !ok {
		return ""
	}
	return mp.m.table.Columns[mp.m.fields[idx].column].Name
}

// Columns 全部列名，声明顺序
func (mp *Mapper[T]) Columns() []string {
	names := make([]string, 0, len(mp.m.table.Columns))
	for _, c := range mp.m.table.Columns {
		names = append(names, c.Name)
	}
	return names
}

// KeyKind 规范键的取值能力
func (mp *Mapper[T]) KeyKind() KeyKind {
	return mp.m.keyKind
}

// Key 读取规范键的值
func (mp *Mapper[T]) Key(rec *T) (param.Param, bool) {
	if mp.m.firstKey < 0 {
		return nil, false
	}
	return mp.m.fields[mp.m.firstKey].encode(reflect.ValueOf(rec).Elem()), true
}

// KeyInt 规范键为整数时返回其值
func (mp *Mapper[T]) KeyInt(rec *T) (int64, bool) {
	p, ok := mp.Key(rec)
	if !ok || mp.m.keyKind != KeyInt {
		return 0, false
	}
	switch v := p.(type) {
	case param.Int32:
		return int64(v), true
	case param.Int64:
		return int64(v), true
	}
	return 0, false
}

// KeyString 规范键为文本时返回其值
func (mp *Mapper[T]) KeyString(rec *T) (string, bool) {
	p, ok := mp.Key(rec)
	if !ok || mp.m.keyKind != KeyString {
		return "", false
	}
	v, ok := p.(param.Text)
	return string(v), ok
}

// KeyUUID 规范键为 UUID 时返回其值
func (mp *Mapper[T]) KeyUUID(rec *T) (uuid.UUID, bool) {
	p, ok := mp.Key(rec)
	if !ok || mp.m.keyKind != KeyUUID {
		return uuid.Nil, false
	}
	v, ok := p.(param.UUID)
	return uuid.UUID(v), ok
}
