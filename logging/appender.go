package logging

import (
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender will create human readable lines from log events and write them to the desired
// output sync. E.g: stdout or a file.
type ConsoleAppender struct {
	zapcore.Core
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(DefaultTimeFormatStr),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewWriterAppender creates a console appender that writes to the given sync.
func NewWriterAppender(writer zapcore.WriteSyncer) ConsoleAppender {
	encoder := zapcore.NewConsoleEncoder(consoleEncoderConfig())
	// The level check happens in the logger; the core accepts everything it is handed.
	return ConsoleAppender{zapcore.NewCore(encoder, writer, zapcore.DebugLevel)}
}

// NewStdoutAppender is a convenience constructor for an appender that outputs to stdout.
func NewStdoutAppender() ConsoleAppender {
	return NewWriterAppender(zapcore.Lock(os.Stdout))
}

// NewFileAppender returns an appender writing to path, rotated at 64MB with three compressed backups.
func NewFileAppender(path string) ConsoleAppender {
	return NewWriterAppender(zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    64,
		MaxBackups: 3,
		Compress:   true,
	}))
}
