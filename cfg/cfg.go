package cfg

import (
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hatlonely/rquery/cfg/decoder"
	"github.com/hatlonely/rquery/cfg/validator"
	"github.com/pkg/errors"
)

// Load 读取配置文件到 object，格式由扩展名决定
// 依次执行解码、def 默认值、validate 校验
func Load(filename string, object any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "os.ReadFile failed, filename: [%s]", filename)
	}
	d, err := decoder.ForFile(filename)
	if err != nil {
		return err
	}
	m, err := d.Decode(data)
	if err != nil {
		return errors.WithMessagef(err, "decode [%s] failed", filename)
	}
	return Decode(m, object)
}

// Decode 将已解码的 map 转换为结构体，字段按 cfg tag 匹配
func Decode(m map[string]any, object any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "cfg",
		Result:           object,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return errors.Wrap(err, "mapstructure.NewDecoder failed")
	}
	if err := dec.Decode(m); err != nil {
		return errors.Wrap(err, "mapstructure.Decode failed")
	}
	if err := SetDefaults(object); err != nil {
		return errors.WithMessage(err, "SetDefaults failed")
	}
	if err := validator.ValidateStruct(object); err != nil {
		return errors.Wrap(err, "validate failed")
	}
	return nil
}
