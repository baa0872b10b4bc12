package decoder

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

type JsonDecoder struct{}

// Decode 数字保留为 json.Number，由结构体解码时按字段类型转换
func (JsonDecoder) Decode(data []byte) (map[string]any, error) {
	result := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, errors.Wrap(err, "json.Decode failed")
	}
	return result, nil
}
