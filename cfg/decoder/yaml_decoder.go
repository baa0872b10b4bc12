package decoder

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type YamlDecoder struct{}

func (YamlDecoder) Decode(data []byte) (map[string]any, error) {
	result := map[string]any{}
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "yaml.Unmarshal failed")
	}
	return result, nil
}
