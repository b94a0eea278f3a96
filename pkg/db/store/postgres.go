package store

import (
	"fmt"

	"github.com/mwantia/gocard/pkg/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	LogLevel     logger.LogLevel
	Log          log.LoggerService
}

// NewPostgresStore creates a new PostgreSQL-backed cache store
func NewPostgresStore(cfg PostgresConfig) (*GormStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	svc := cfg.Log
	if svc == nil {
		svc = log.NewNopLogger()
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig(svc, cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	return &GormStore{
		db:           db,
		log:          svc,
		dialect:      "postgres",
		maxOpenConns: cfg.MaxOpenConns,
	}, nil
}
