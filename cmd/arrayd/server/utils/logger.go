package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
	LevelFatal = zapcore.FatalLevel
)

var (
	globalLogger *Log
	globalLevel  = zap.NewAtomicLevelAt(zapcore.DebugLevel)
)

func init() {
	globalLogger = newLogger(globalLevel)
}

func newLogger(lv zap.AtomicLevel) *Log {
	config := zap.NewDevelopmentConfig()
	config.Level = lv
	l, err := config.Build()
	if err != nil {
		panic(err)
	}
	return Wrap(l)
}

// Log is a sugared zap logger that also satisfies the badger logger interface.
type Log struct {
	*zap.SugaredLogger
}

// Wrap sugars l.
func Wrap(l *zap.Logger) *Log {
	return &Log{SugaredLogger: l.Sugar()}
}

func (l *Log) Warningf(s string, i ...interface{}) {
	l.SugaredLogger.Warnf(s, i...)
}

// With returns a child logger carrying the key value pairs.
func (l *Log) With(args ...interface{}) *Log {
	return &Log{SugaredLogger: l.SugaredLogger.With(args...)}
}

// Logger returns the process wide logger.
func Logger() *Log {
	return globalLogger
}

// SetLevel changes the level of the process wide logger.
func SetLevel(lv LogLevel) {
	globalLevel.SetLevel(lv)
}

func NewLogger(lv LogLevel) *Log {
	return newLogger(zap.NewAtomicLevelAt(lv))
}
