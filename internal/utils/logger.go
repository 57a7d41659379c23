// internal/utils/logger.go
package utils

import (
	"sync"

	"go.uber.org/zap"
)

// Logger 结构化日志，内部由 zap 承载
type Logger struct {
	sugar *zap.SugaredLogger
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
)

// GetLogger 获取全局日志实例（未初始化时退化为开发配置）
func GetLogger() *Logger {
	loggerOnce.Do(func() {
		if globalLogger == nil {
			zl, _ := zap.NewDevelopment()
			globalLogger = &Logger{sugar: zl.Sugar()}
		}
	})
	return globalLogger
}

// InitLogger 按运行模式初始化全局日志
func InitLogger(debugMode bool) error {
	var (
		zl  *zap.Logger
		err error
	)
	if debugMode {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	globalLogger = &Logger{sugar: zl.Sugar()}
	return nil
}

// Sync 刷新缓冲日志
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// With 派生带固定字段的子日志
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}
