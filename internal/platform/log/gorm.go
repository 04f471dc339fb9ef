package log

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger forwards gorm's SQL tracing and diagnostics to logrus.
type GormLogger struct {
	logger        *logrus.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger builds a gorm logger. When echo is set every statement is logged at info level.
func NewGormLogger(logger *logrus.Logger, echo bool) *GormLogger {
	level := gormlogger.Warn
	if echo {
		level = gormlogger.Info
	}

	return &GormLogger{
		logger:        logger,
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
}

// LogMode returns a copy of the logger with the given level.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.entry().Info(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.entry().Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.entry().Error(fmt.Sprintf(msg, args...))
	}
}

// Trace logs a finished statement. Missing rows are an expected outcome and never logged as errors.
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logrus.Fields{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": float64(elapsed.Microseconds()) / 1000,
	}

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.entry().WithFields(fields).WithField("error", err.Error()).Error("sql statement failed")
	case elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		l.entry().WithFields(fields).Warn("slow sql statement")
	case l.level >= gormlogger.Info:
		l.entry().WithFields(fields).Info("sql statement")
	}
}

func (l *GormLogger) entry() *logrus.Entry {
	return WithComponent(l.logger, "gorm")
}
