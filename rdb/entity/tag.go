package entity

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// 支持的 tag 格式：
//   - `table:"Employees,schema=hr"` 表名，可放在任意字段上（通常是 `_ struct{}`）
//   - `key:"EmployeeId,identity,ignore_in_update,ignore_in_insert"`
//   - `column:"Name,required,allow_null,allow_empty=false,max_length=50,min_length=2,ignore,ignore_in_update,ignore_in_insert,ignore_in_delete"`
//   - `column:"-"` 跳过字段
//   - `relation:"foreign_key=CountryId,table=Countries,table_number=2,ignore_in_update,ignore_in_insert"`
//   - `regex`、`error_required`、`error_allow_null`、`error_allow_empty`、`error_max_length`、
//     `error_min_length`、`error_regex` 单独成 tag，值中可以包含逗号

// tagOptions 逗号分隔的 tag，第一段不含 = 时为名称
type tagOptions struct {
	name   string
	flags  map[string]bool
	values map[string]string
}

func parseTag(tag string) tagOptions {
	opts := tagOptions{flags: map[string]bool{}, values: map[string]string{}}
	if tag == "" {
		return opts
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" && !strings.Contains(parts[0], "=") {
		opts.name = strings.TrimSpace(parts[0])
		parts = parts[1:]
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if kv := strings.SplitN(part, "=", 2); len(kv) == 2 {
			opts.values[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		} else {
			opts.flags[part] = true
		}
	}
	return opts
}

// check 校验 tag 中只包含已知选项
func (o tagOptions) check(known ...string) error {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	for k := range o.flags {
		if !allowed[k] {
			return errors.Errorf("unknown option %q", k)
		}
	}
	for k := range o.values {
		if !allowed[k] {
			return errors.Errorf("unknown option %q", k)
		}
	}
	return nil
}

// boolValue 支持 `flag` 和 `flag=true|false` 两种写法
func (o tagOptions) boolValue(key string, def bool) (bool, error) {
	if o.flags[key] {
		return true, nil
	}
	v, ok := o.values[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Errorf("invalid bool value %q for %s", v, key)
	}
	return b, nil
}

func (o tagOptions) intValue(key string) (*int, error) {
	v, ok := o.values[key]
	if !ok {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, errors.Errorf("invalid int value %q for %s", v, key)
	}
	return &n, nil
}

func parseColumnTag(field reflect.StructField, col *ColumnMeta) error {
	opts := parseTag(field.Tag.Get("column"))
	if err := opts.check("required", "allow_null", "allow_empty", "max_length", "min_length",
		"ignore", "ignore_in_update", "ignore_in_insert", "ignore_in_delete"); err != nil {
		return err
	}
	if opts.name != "" {
		col.Name = opts.name
	}

	var err error
	if col.Required, err = opts.boolValue("required", false); err != nil {
		return err
	}
	if col.AllowNull, err = opts.boolValue("allow_null", false); err != nil {
		return err
	}
	if col.AllowEmpty, err = opts.boolValue("allow_empty", true); err != nil {
		return err
	}
	if col.MaxLength, err = opts.intValue("max_length"); err != nil {
		return err
	}
	if col.MinLength, err = opts.intValue("min_length"); err != nil {
		return err
	}
	if col.Ignore, err = opts.boolValue("ignore", false); err != nil {
		return err
	}
	if col.IgnoreInUpdate, err = opts.boolValue("ignore_in_update", false); err != nil {
		return err
	}
	if col.IgnoreInInsert, err = opts.boolValue("ignore_in_insert", false); err != nil {
		return err
	}
	if col.IgnoreInDelete, err = opts.boolValue("ignore_in_delete", false); err != nil {
		return err
	}

	col.Regex = field.Tag.Get("regex")
	col.ErrorRequired = field.Tag.Get("error_required")
	col.ErrorAllowNull = field.Tag.Get("error_allow_null")
	col.ErrorAllowEmpty = field.Tag.Get("error_allow_empty")
	col.ErrorMaxLength = field.Tag.Get("error_max_length")
	col.ErrorMinLength = field.Tag.Get("error_min_length")
	col.ErrorRegex = field.Tag.Get("error_regex")
	return nil
}

func parseKeyTag(tag string, key *KeyMeta) error {
	opts := parseTag(tag)
	if err := opts.check("identity", "ignore_in_update", "ignore_in_insert"); err != nil {
		return err
	}
	if opts.name != "" {
		key.Column = opts.name
	}

	var err error
	if key.IsIdentity, err = opts.boolValue("identity", false); err != nil {
		return err
	}
	if key.IgnoreInUpdate, err = opts.boolValue("ignore_in_update", false); err != nil {
		return err
	}
	if key.IgnoreInInsert, err = opts.boolValue("ignore_in_insert", false); err != nil {
		return err
	}
	return nil
}

func parseRelationTag(field reflect.StructField, tag string) (RelationMeta, error) {
	rel := RelationMeta{Name: field.Name}
	opts := parseTag(tag)
	if err := opts.check("foreign_key", "table", "table_number", "ignore_in_update", "ignore_in_insert"); err != nil {
		return rel, err
	}
	if opts.name != "" {
		rel.Name = opts.name
	}
	rel.ForeignKey = opts.values["foreign_key"]
	rel.Table = opts.values["table"]
	if rel.ForeignKey == "" || rel.Table == "" {
		return rel, errors.New("relation requires foreign_key and table")
	}

	var err error
	if rel.TableNumber, err = opts.intValue("table_number"); err != nil {
		return rel, err
	}
	if rel.IgnoreInUpdate, err = opts.boolValue("ignore_in_update", false); err != nil {
		return rel, err
	}
	if rel.IgnoreInInsert, err = opts.boolValue("ignore_in_insert", false); err != nil {
		return rel, err
	}
	return rel, nil
}

// parseTableTag 从结构体字段中查找 table tag
func parseTableTag(rt reflect.Type) (name string, schema string, err error) {
	for i := 0; i < rt.NumField(); i++ {
		tag, ok := rt.Field(i).Tag.Lookup("table")
		if !ok {
			continue
		}
		opts := parseTag(tag)
		if err := opts.check("schema"); err != nil {
			return "", "", err
		}
		return opts.name, opts.values["schema"], nil
	}
	return "", "", nil
}
