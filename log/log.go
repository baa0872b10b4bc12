package log

import (
	"sync/atomic"

	"github.com/hatlonely/rquery/log/logger"
	"github.com/pkg/errors"
)

// holder atomic.Value 要求每次存入相同的具体类型
type holder struct {
	l logger.Logger
}

var defaultLogger atomic.Value

func init() {
	l, err := logger.NewSLogWithOptions(&logger.SLogOptions{
		Level:  "info",
		Format: "text",
	})
	if err != nil {
		panic("failed to initialize default logger: " + err.Error())
	}
	SetDefault(l)
}

// Default 进程级默认日志器，未配置日志的组件使用它
func Default() logger.Logger {
	return defaultLogger.Load().(holder).l
}

func SetDefault(l logger.Logger) {
	if l != nil {
		defaultLogger.Store(holder{l: l})
	}
}

func NewLoggerWithOptions(options *logger.SLogOptions) (logger.Logger, error) {
	l, err := logger.NewSLogWithOptions(options)
	if err != nil {
		return nil, errors.WithMessage(err, "logger.NewSLogWithOptions failed")
	}
	return l, nil
}
