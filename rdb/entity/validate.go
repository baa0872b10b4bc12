package entity

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/hatlonely/rquery/rdb/param"
)

// ValidationError 校验失败，包含全部违规信息
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// Validate 执行全部字段规则，返回所有违规信息，nil 表示通过
// 只有文本列和可选列有规则，其余列不校验
func (mp *Mapper[T]) Validate(rec *T) []string {
	m := mp.m
	rv := reflect.ValueOf(rec).Elem()

	var messages []string
	for i := range m.fields {
		f := &m.fields[i]
		if !f.optional && f.kind != param.KindText {
			continue
		}
		col := &m.table.Columns[f.column]

		if f.optional {
			present := !rv.FieldByIndex(f.index).IsNil()
			if !present {
				if col.Required {
					messages = append(messages, message(col.ErrorRequired, "%s is required", col.Name))
				} else if !col.AllowNull {
					messages = append(messages, message(col.ErrorAllowNull, "%s cannot be null", col.Name))
				}
				continue
			}
			if f.kind != param.KindText {
				continue
			}
		}

		value, _ := f.text(rv)
		messages = append(messages, validateText(col, m.regexes[f.column], value)...)
	}
	return messages
}

// ValidateError 同 Validate，失败时返回 *ValidationError
func (mp *Mapper[T]) ValidateError(rec *T) error {
	if messages := mp.Validate(rec); len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}

func validateText(col *ColumnMeta, re *regexp.Regexp, value string) []string {
	var messages []string
	if value == "" {
		if col.Required {
			messages = append(messages, message(col.ErrorRequired, "%s is required", col.Name))
		} else if !col.AllowEmpty {
			messages = append(messages, message(col.ErrorAllowEmpty, "%s cannot be empty", col.Name))
		}
	}
	// 长度按字节计算
	if col.MaxLength != nil && len(value) > *col.MaxLength {
		messages = append(messages, message(col.ErrorMaxLength, "%s exceeds max length %d", col.Name, *col.MaxLength))
	}
	if col.MinLength != nil && len(value) < *col.MinLength {
		messages = append(messages, message(col.ErrorMinLength, "%s below min length %d", col.Name, *col.MinLength))
	}
	if re != nil && !re.MatchString(value) {
		messages = append(messages, message(col.ErrorRegex, "%s has invalid format", col.Name))
	}
	return messages
}

func message(custom string, format string, args ...any) string {
	if custom != "" {
		return custom
	}
	return fmt.Sprintf(format, args...)
}
