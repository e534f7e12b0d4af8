package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels
const (
	LevelDebug = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	levelNames = map[int]zapcore.Level{
		LevelDebug: zapcore.DebugLevel,
		LevelInfo:  zapcore.InfoLevel,
		LevelWarn:  zapcore.WarnLevel,
		LevelError: zapcore.ErrorLevel,
	}

	// Default to INFO in production, DEBUG in development
	minLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	baseMu sync.RWMutex
	base   *zap.SugaredLogger
)

// Logger wraps a sugared zap logger tagged with a component name
type Logger struct {
	component string
}

func init() {
	if os.Getenv("ENV") == "development" {
		minLevel.SetLevel(zapcore.DebugLevel)
	}
	base = build(IsDevelopment())
}

func build(development bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = minLevel
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// Init rebuilds the shared zap core once configuration is known
func Init(env, level string) {
	if lvl, ok := ParseLevel(level); ok {
		SetMinLevel(lvl)
	}

	baseMu.Lock()
	base = build(env == "development")
	baseMu.Unlock()
}

// Use replaces the shared zap core, mainly for tests
func Use(l *zap.Logger) {
	baseMu.Lock()
	base = l.WithOptions(zap.AddCallerSkip(2)).Sugar()
	baseMu.Unlock()
}

// Sync flushes buffered entries
func Sync() {
	baseMu.RLock()
	defer baseMu.RUnlock()
	_ = base.Sync()
}

// New creates a new logger for a specific component
func New(component string) *Logger {
	return &Logger{component: component}
}

// SetMinLevel allows changing the minimum log level at runtime
func SetMinLevel(level int) {
	if lvl, ok := levelNames[level]; ok {
		minLevel.SetLevel(lvl)
	}
}

// ParseLevel maps a level name such as "debug" or "warn" to its constant
func ParseLevel(name string) (int, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return 0, false
}

// logf logs a message at the specified level
func (l *Logger) logf(level int, format string, args ...interface{}) {
	baseMu.RLock()
	s := base.With("component", l.component)
	baseMu.RUnlock()

	switch level {
	case LevelDebug:
		s.Debugf(format, args...)
	case LevelInfo:
		s.Infof(format, args...)
	case LevelWarn:
		s.Warnf(format, args...)
	default:
		s.Errorf(format, args...)
	}
}

// Debug logs debug information
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

// Info logs information messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "development" // Default to development
	}
	return env
}

// IsDevelopment returns true if the current environment is development
func IsDevelopment() bool {
	return GetAppEnv() == "development"
}
