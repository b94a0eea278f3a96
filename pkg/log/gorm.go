package log

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogger routes gorm's own log output (SQL errors, slow queries) into a
// LoggerService.
type GormLogger struct {
	log           LoggerService
	level         logger.LogLevel
	slowThreshold time.Duration
}

var _ logger.Interface = (*GormLogger)(nil)

// NewGormLogger creates a gorm logger at the given level. Record-not-found
// errors are never logged since a cache miss is an expected outcome.
func NewGormLogger(log LoggerService, level logger.LogLevel) *GormLogger {
	if level == 0 {
		level = logger.Warn
	}
	return &GormLogger{
		log:           log,
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
}

func (g *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Info {
		g.log.Debug(msg, args...)
	}
}

func (g *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Warn {
		g.log.Warn(msg, args...)
	}
}

func (g *GormLogger) Error(_ context.Context, msg string, args ...any) {
	if g.level >= logger.Error {
		g.log.Error(msg, args...)
	}
}

func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.log.Error("SQL failed after %s (rows: %d): %v [%s]", elapsed, rows, err, sql)
	case elapsed > g.slowThreshold && g.level >= logger.Warn:
		sql, rows := fc()
		g.log.Warn("Slow SQL took %s (rows: %d) [%s]", elapsed, rows, sql)
	case g.level >= logger.Info:
		sql, rows := fc()
		g.log.Debug("SQL took %s (rows: %d) [%s]", elapsed, rows, sql)
	}
}
