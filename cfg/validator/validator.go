package validator

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidateStruct 按 validate tag 校验结构体，nil 或非结构体直接通过
func ValidateStruct(object any) error {
	rv := reflect.ValueOf(object)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	once.Do(func() {
		validate = validator.New()
	})
	return validate.Struct(rv.Interface())
}
