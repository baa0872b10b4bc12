package decoder

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Decoder 将配置文件内容解码为嵌套的 map
type Decoder interface {
	Decode(data []byte) (map[string]any, error)
}

// ForFile 按扩展名选择解码器
func ForFile(filename string) (Decoder, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return &YamlDecoder{}, nil
	case ".toml":
		return &TomlDecoder{}, nil
	case ".json":
		return &JsonDecoder{}, nil
	}
	return nil, errors.Errorf("unsupported config file extension: [%s]", filename)
}
