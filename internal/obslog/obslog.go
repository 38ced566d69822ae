// Package obslog is the structured-logging façade used throughout this
// module. It wraps go.uber.org/zap behind a small set of named
// constructors instead of passing a raw *zap.Logger everywhere, so call
// sites read as domain events rather than generic log lines.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a *zap.SugaredLogger with the handful of methods this
// module actually calls, so packages depend on this narrow interface
// rather than on zap directly.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a Logger at the given level, writing human-readable console
// output (development-style encoding rather than a JSON production
// encoder).
func New(level zapcore.Level) (*Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z.Sugar()}, nil
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{z: zap.NewNop().Sugar()}
}

func (l *Logger) Debugw(msg string, kv ...any) {
	if l == nil {
		return
	}
	l.z.Debugw(msg, kv...)
}

func (l *Logger) Infow(msg string, kv ...any) {
	if l == nil {
		return
	}
	l.z.Infow(msg, kv...)
}

func (l *Logger) Warnw(msg string, kv ...any) {
	if l == nil {
		return
	}
	l.z.Warnw(msg, kv...)
}

func (l *Logger) Errorw(msg string, kv ...any) {
	if l == nil {
		return
	}
	l.z.Errorw(msg, kv...)
}

// Sync flushes buffered log entries; callers should defer it in main.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.z.Sync()
}
