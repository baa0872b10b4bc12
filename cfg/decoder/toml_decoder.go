package decoder

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type TomlDecoder struct{}

func (TomlDecoder) Decode(data []byte) (map[string]any, error) {
	result := map[string]any{}
	if err := toml.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(err, "toml.Unmarshal failed")
	}
	return result, nil
}
