package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name into a Level.
// Unknown names fall back to LevelInfo.
func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Config selects level, encoding and destination of a Logger.
type Config struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string

	// Format is "text" or "json"
	Format string

	// Output is "stdout", "stderr" or a file path
	Output string
}

// Logger is a leveled printf-style logger. Components receive a *Logger at
// construction instead of writing to a process-wide instance.
//
// A nil *Logger is valid and discards everything.
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel

	// closer is the log file opened by New, shared with child loggers
	closer io.Closer
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level).zapLevel())

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer
	var closer io.Closer
	switch cfg.Output {
	case "", "stdout":
		sink = zapcore.Lock(os.Stdout)
	case "stderr":
		sink = zapcore.Lock(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log output %q: %w", cfg.Output, err)
		}
		sink = zapcore.Lock(f)
		closer = f
	}

	core := zapcore.NewCore(encoder, sink, level)
	return &Logger{
		sugar:  zap.New(core).Sugar(),
		level:  level,
		closer: closer,
	}, nil
}

// NewFromZap wraps an existing zap logger, typically zaptest or zap.NewNop.
// Entries pass through at every level until SetLevel raises the minimum;
// the wrapped logger's own level still applies.
func NewFromZap(z *zap.Logger) *Logger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	wrapped := z.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &levelCore{Core: c, level: level}
	}))
	return &Logger{
		sugar: wrapped.Sugar(),
		level: level,
	}
}

// levelCore filters a core through an atomic level.
type levelCore struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (c *levelCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), level: c.level}
}

func (c *levelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.level.Enabled(ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}

// Nop returns a Logger that discards all output.
func Nop() *Logger {
	return NewFromZap(zap.NewNop())
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level string) {
	if l == nil {
		return
	}
	l.level.SetLevel(ParseLevel(level).zapLevel())
}

// Named returns a child logger whose entries carry the given name.
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{sugar: l.sugar.Named(name), level: l.level, closer: l.closer}
}

// With returns a child logger with key/value pairs attached to every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{sugar: l.sugar.With(keysAndValues...), level: l.level, closer: l.closer}
}

func (l *Logger) Debug(format string, v ...any) {
	if l == nil {
		return
	}
	l.sugar.Debugf(format, v...)
}

func (l *Logger) Info(format string, v ...any) {
	if l == nil {
		return
	}
	l.sugar.Infof(format, v...)
}

func (l *Logger) Warn(format string, v ...any) {
	if l == nil {
		return
	}
	l.sugar.Warnf(format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	if l == nil {
		return
	}
	l.sugar.Errorf(format, v...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.sugar.Sync()
}

// Close flushes buffered entries and closes the log file, if New opened one.
// The logger and its children must not be used afterwards.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	// Sync on a terminal returns EINVAL; only the file result matters
	syncErr := l.sugar.Sync()
	if l.closer == nil {
		return nil
	}
	if err := l.closer.Close(); err != nil {
		return err
	}
	return syncErr
}
