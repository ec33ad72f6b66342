package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger zerolog.Logger
var once sync.Once

type LoggerOption func(*LoggerConfig)

type LoggerConfig struct {
	fileName string
	console  bool
	level    zerolog.Level
	writer   io.Writer
}

// WithFileLogger adds a rotating file output.
func WithFileLogger(fileName string) LoggerOption {
	return func(l *LoggerConfig) {
		l.fileName = fileName
	}
}

// WithConsoleLogger switches stdout to the human readable console format.
func WithConsoleLogger() LoggerOption {
	return func(l *LoggerConfig) {
		l.console = true
	}
}

// WithLogLevel sets the minimum level by name ("debug", "info", ...).
// Unknown names keep the info level.
func WithLogLevel(level string) LoggerOption {
	return func(l *LoggerConfig) {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && lvl != zerolog.NoLevel {
			l.level = lvl
		}
	}
}

// WithWriter replaces stdout with w.
func WithWriter(w io.Writer) LoggerOption {
	return func(l *LoggerConfig) {
		l.writer = w
	}
}

// Init builds the process logger once. Later calls are ignored.
func Init(serviceName string, opts ...LoggerOption) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := &LoggerConfig{level: zerolog.InfoLevel, writer: os.Stdout}

		for _, opt := range opts {
			opt(l)
		}

		output := make([]io.Writer, 0, 2)
		if l.console {
			output = append(output, zerolog.ConsoleWriter{
				Out:        l.writer,
				TimeFormat: time.RFC3339,
			})
		} else {
			output = append(output, l.writer)
		}
		if l.fileName != "" {
			output = append(output, &lumberjack.Logger{
				Filename:   l.fileName,
				MaxSize:    5,
				MaxBackups: 10,
				MaxAge:     14,
				Compress:   true,
			})
		}

		logger = zerolog.New(zerolog.MultiLevelWriter(output...)).
			Level(l.level).
			With().
			Timestamp().
			Str("service", serviceName).
			Logger()
	})
}

// GetLogger returns the process logger. Before Init it is a disabled logger.
func GetLogger() zerolog.Logger {
	return logger
}
