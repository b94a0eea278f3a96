package migrations

import (
	"context"
	"fmt"

	"github.com/mwantia/gocard/pkg/log"
	"gorm.io/gorm"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          func(*gorm.DB) error
	Down        func(*gorm.DB) error
}

// migrationHistory tracks applied migrations
type migrationHistory struct {
	ID          uint   `gorm:"primaryKey"`
	Version     int    `gorm:"uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	AppliedAt   int64  `gorm:"autoCreateTime"`
}

// Migrator handles database migrations
type Migrator struct {
	db         *gorm.DB
	log        log.LoggerService
	migrations []Migration
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *gorm.DB, logger log.LoggerService) *Migrator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := &Migrator{
		db:  db,
		log: logger,
	}
	m.migrations = m.allMigrations()
	return m
}

// Latest returns the highest known schema version
func (m *Migrator) Latest() int {
	return m.migrations[len(m.migrations)-1].Version
}

// Migrate runs all pending migrations
func (m *Migrator) Migrate(ctx context.Context) error {
	return m.MigrateTo(ctx, m.Latest())
}

// MigrateTo runs pending migrations up to and including version
func (m *Migrator) MigrateTo(ctx context.Context, version int) error {
	// Ensure migration history table exists
	if err := m.db.WithContext(ctx).AutoMigrate(&migrationHistory{}); err != nil {
		return fmt.Errorf("failed to create migration history table: %w", err)
	}

	appliedVersions, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > version || appliedVersions[migration.Version] {
			continue
		}

		m.log.Info("Applying migration %d (%s)", migration.Version, migration.Description)
		if err := m.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}
	}

	return nil
}

// Rollback rolls back the last applied migration
func (m *Migrator) Rollback(ctx context.Context) error {
	var last migrationHistory
	if err := m.db.WithContext(ctx).Order("version DESC").First(&last).Error; err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last.Version {
			migration = &m.migrations[i]
			break
		}
	}

	if migration == nil {
		return fmt.Errorf("migration %d not found", last.Version)
	}

	m.log.Info("Rolling back migration %d (%s)", migration.Version, migration.Description)
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := migration.Down(tx); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}

		if err := tx.Delete(&last).Error; err != nil {
			return fmt.Errorf("failed to update migration history: %w", err)
		}
		return nil
	})
}

// Status returns migration status
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&migrationHistory{}); err != nil {
		return nil, fmt.Errorf("failed to create migration history table: %w", err)
	}

	appliedVersions, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var statuses []MigrationStatus
	for _, migration := range m.migrations {
		statuses = append(statuses, MigrationStatus{
			Version:     migration.Version,
			Description: migration.Description,
			Applied:     appliedVersions[migration.Version],
		})
	}

	return statuses, nil
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version     int
	Description string
	Applied     bool
}

func (m *Migrator) applied(ctx context.Context) (map[int]bool, error) {
	var applied []migrationHistory
	if err := m.db.WithContext(ctx).Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}

	versions := make(map[int]bool, len(applied))
	for _, a := range applied {
		versions[a.Version] = true
	}
	return versions, nil
}

func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := migration.Up(tx); err != nil {
			return err
		}

		history := migrationHistory{
			Version:     migration.Version,
			Description: migration.Description,
		}
		return tx.Create(&history).Error
	})
}
