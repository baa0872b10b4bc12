package entity

// TableMeta 表元数据，每个实体类型注册时构建一次，之后只读
type TableMeta struct {
	Name      string
	Schema    string
	Columns   []ColumnMeta
	Keys      []KeyMeta
	Relations []RelationMeta
}

// ColumnMeta 列元数据
type ColumnMeta struct {
	Name       string
	Required   bool
	AllowNull  bool
	AllowEmpty bool
	// MaxLength/MinLength 仅对文本列生效，nil 表示不限制
	MaxLength *int
	MinLength *int
	Regex     string

	ErrorRequired   string
	ErrorAllowNull  string
	ErrorAllowEmpty string
	ErrorMaxLength  string
	ErrorMinLength  string
	ErrorRegex      string

	Ignore         bool
	IgnoreInUpdate bool
	IgnoreInInsert bool
	IgnoreInDelete bool
}

// KeyMeta 键元数据，声明顺序有意义，第一个键是规范键
type KeyMeta struct {
	Column         string
	IsIdentity     bool
	IgnoreInUpdate bool
	IgnoreInInsert bool
}

// RelationMeta 外键关系，仅作描述，不参与语句生成
type RelationMeta struct {
	Name           string
	ForeignKey     string
	Table          string
	TableNumber    *int
	IgnoreInUpdate bool
	IgnoreInInsert bool
}

// KeyKind 规范键的取值能力
type KeyKind int

const (
	KeyNone KeyKind = iota
	KeyInt
	KeyString
	KeyUUID
)

func (k KeyKind) String() string {
	switch k {
	case KeyInt:
		return "int"
	case KeyString:
		return "string"
	case KeyUUID:
		return "uuid"
	}
	return "none"
}

// Column 按列名查找列元数据
func (t *TableMeta) Column(name string) (ColumnMeta, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnMeta{}, false
}

// FirstKey 规范键列名
func (t *TableMeta) FirstKey() (string, bool) {
	if len(t.Keys) == 0 {
		return "", false
	}
	return t.Keys[0].Column, true
}

// HasIdentity 是否存在数据库生成的键
func (t *TableMeta) HasIdentity() bool {
	for _, k := range t.Keys {
		if k.IsIdentity {
			return true
		}
	}
	return false
}

// QualifiedName 带 schema 的表名，仅用于展示
func (t *TableMeta) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}
