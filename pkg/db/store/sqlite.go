package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/gocard/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path     string
	LogLevel logger.LogLevel
	Log      log.LoggerService
}

// NewSQLiteStore creates a new SQLite-backed cache store
func NewSQLiteStore(cfg SQLiteConfig) (*GormStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	svc := cfg.Log
	if svc == nil {
		svc = log.NewNopLogger()
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), gormConfig(svc, cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &GormStore{
		db:           db,
		log:          svc,
		dialect:      "sqlite",
		maxOpenConns: 1, // SQLite only supports 1 writer
	}, nil
}

func gormConfig(svc log.LoggerService, level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: log.NewGormLogger(svc.Named("gorm"), level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}
