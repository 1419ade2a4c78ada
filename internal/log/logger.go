package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "xrayphasemap/internal/errors"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultName names the process-wide logger until Configure sets another.
const DefaultName = "pyXRayPhaseMap"

var (
	isDebug = false
	mu      sync.RWMutex
	logger  = NewLogger()
)

// Field is a key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Option configures a Logger.
type Option func(*Logger)

// Rotation sets the size cap and backup count of a rotating file sink.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
}

// Logger is a named logger backed by logrus.
type Logger struct {
	name     string
	base     *logrus.Logger
	entry    *logrus.Entry
	file     *lumberjack.Logger
	rotation Rotation
	json     bool
}

// NewLogger creates a logger writing to stdout unless options say otherwise.
func NewLogger(opts ...Option) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(logrus.InfoLevel)

	l := &Logger{
		name:     DefaultName,
		base:     base,
		rotation: Rotation{MaxSizeMB: 1, MaxBackups: 10},
	}
	for _, opt := range opts {
		opt(l)
	}
	if isDebug {
		base.SetLevel(logrus.DebugLevel)
	}
	if l.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		base.SetFormatter(&lineFormatter{})
	}
	l.entry = logrus.NewEntry(base).WithField(nameKey, l.name)
	return l
}

// WithOutput sends log lines to w.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.base.SetOutput(w)
	}
}

// WithName sets the logger name printed on every line.
func WithName(name string) Option {
	return func(l *Logger) {
		l.name = name
	}
}

// WithRotation sets the rotation policy used by WithFile. It must come first.
func WithRotation(r Rotation) Option {
	return func(l *Logger) {
		l.rotation = r
	}
}

// WithFile appends log lines to a rotating file at path, in addition to stdout
// when stdout is still the configured output.
func WithFile(path string) Option {
	return func(l *Logger) {
		l.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    l.rotation.MaxSizeMB,
			MaxBackups: l.rotation.MaxBackups,
		}
		if l.base.Out == os.Stdout {
			l.base.SetOutput(io.MultiWriter(os.Stdout, l.file))
			return
		}
		l.base.SetOutput(l.file)
	}
}

// WithLevel sets the minimum level by name (debug, info, warn, error).
func WithLevel(level string) Option {
	return func(l *Logger) {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return
		}
		l.base.SetLevel(lvl)
	}
}

// WithJSON switches to JSON lines.
func WithJSON() Option {
	return func(l *Logger) {
		l.json = true
	}
}

// Configure replaces the process-wide logger.
func Configure(opts ...Option) {
	next := NewLogger(opts...)
	mu.Lock()
	prev := logger
	logger = next
	mu.Unlock()
	if prev != nil && prev.file != nil {
		prev.file.Close()
	}
}

// Close flushes and closes the process-wide file sink, if any.
func Close() error {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return l.Close()
}

// Default returns the process-wide logger.
func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetDebug enables debug output on the process-wide logger.
func SetDebug(debug bool) {
	isDebug = debug
	l := Default()
	if debug {
		l.base.SetLevel(logrus.DebugLevel)
	} else {
		l.base.SetLevel(logrus.InfoLevel)
	}
}

// Name returns the dotted logger name.
func (l *Logger) Name() string {
	return l.name
}

// Named returns a child logger whose name is this logger's name plus suffix.
func (l *Logger) Named(suffix string) *Logger {
	child := *l
	child.name = l.name + "." + suffix
	child.entry = l.entry.WithField(nameKey, child.name)
	return &child
}

// With returns a logger that attaches fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	child := *l
	child.entry = l.entry.WithFields(toLogrus(fields))
	return &child
}

// WithContext is a hook for context-scoped fields. None are extracted yet.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	child := *l
	child.entry = l.entry.WithContext(ctx)
	return &child
}

// Close closes the file sink of this logger.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) Info(msg string)                           { l.entry.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.entry.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.entry.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *Logger) Debug(msg string)                          { l.entry.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

// Info logs on the process-wide logger.
func Info(format string, args ...interface{}) {
	Default().Infof(format, args...)
}

// Infof logs a formatted message on the process-wide logger.
func Infof(format string, args ...interface{}) {
	Default().Infof(format, args...)
}

// Debug logs a message with arguments
func Debug(msg string, args ...interface{}) {
	if len(args) == 0 {
		Default().Debug(msg)
		return
	}
	Default().Debugf(msg+": %v", args...)
}

// Debugf logs a formatted message
func Debugf(format string, args ...interface{}) {
	Default().Debugf(format, args...)
}

// Error logs an error message with arguments
func Error(msg string, args ...interface{}) {
	if len(args) == 0 {
		Default().Error(msg)
		return
	}
	Default().Errorf(msg+": %v", args...)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...interface{}) {
	Default().Errorf(format, args...)
}

// Warn logs a warning message with arguments
func Warn(msg string, args ...interface{}) {
	if len(args) == 0 {
		Default().Warn(msg)
		return
	}
	Default().Warnf(msg+": %v", args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	Default().Warnf(format, args...)
}

// LogWithFields returns the process-wide logger with fields attached.
func LogWithFields(fields ...Field) *Logger {
	return Default().With(fields...)
}

// LogWithError attaches err and, for application errors, its kind and
// subject (path, param or key).
func LogWithError(err error) *Logger {
	if err == nil {
		return LogWithFields(F("error", "<nil>"))
	}
	fields := []Field{F("error", err.Error()), F("error_kind", int(apperrors.KindOf(err)))}
	var fileErr *apperrors.FileError
	if apperrors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var configErr *apperrors.ConfigError
	if apperrors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	var settingsErr *apperrors.SettingsError
	if apperrors.As(err, &settingsErr) && settingsErr.Key() != "" {
		fields = append(fields, F("key", settingsErr.Key()))
	}
	return LogWithFields(fields...)
}

// LogError logs err at error level with msg.
func LogError(err error, msg string) {
	LogWithError(err).Error(msg)
}

const nameKey = "logger"

func toLogrus(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

// lineFormatter prints "timestamp : name : LEVEL : message key=value ...".
type lineFormatter struct{}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	name, _ := e.Data[nameKey].(string)
	fmt.Fprintf(&b, "%s : %s : %s : %s",
		e.Time.Format("2006-01-02 15:04:05,000"),
		name,
		strings.ToUpper(e.Level.String()),
		e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != nameKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
