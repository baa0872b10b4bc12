package writer

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Writer 日志输出器
type Writer interface {
	io.Writer
	io.Closer
}

// Options 输出目标，Type 为 console 或 file
type Options struct {
	Type string `cfg:"type" def:"console" validate:"omitempty,oneof=console file"`

	// Target console 输出到 stdout 或 stderr
	Target string `cfg:"target" def:"stdout"`

	// Path file 输出的文件路径
	Path string `cfg:"path"`
}

func NewWriterWithOptions(options *Options) (Writer, error) {
	if options == nil {
		return NewConsoleWriter("stdout"), nil
	}
	switch options.Type {
	case "", "console":
		return NewConsoleWriter(options.Target), nil
	case "file":
		return NewFileWriter(options.Path)
	}
	return nil, errors.Errorf("unsupported writer type: %s", options.Type)
}

// ConsoleWriter 写到标准输出或标准错误，Close 不关闭底层文件
type ConsoleWriter struct {
	w io.Writer
}

func NewConsoleWriter(target string) *ConsoleWriter {
	if target == "stderr" {
		return &ConsoleWriter{w: os.Stderr}
	}
	return &ConsoleWriter{w: os.Stdout}
}

func (c *ConsoleWriter) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

func (c *ConsoleWriter) Close() error {
	return nil
}
