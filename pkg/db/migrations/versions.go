package migrations

import (
	"github.com/mwantia/gocard/pkg/db/models"
	"gorm.io/gorm"
)

// allMigrations returns all migrations in order
func (m *Migrator) allMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Legacy single-table layout",
			Up: func(db *gorm.DB) error {
				return db.AutoMigrate(
					&models.LegacyCard{},
					&models.SearchIndexEntry{},
					&models.Preference{},
				)
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropTable(
					&models.Preference{},
					&models.SearchIndexEntry{},
					&models.LegacyCard{},
				)
			},
		},
		{
			Version:     2,
			Description: "Normalize cards into cards, cache_meta and metadata",
			Up: func(db *gorm.DB) error {
				if err := db.AutoMigrate(
					&models.Card{},
					&models.CacheMeta{},
					&models.Metadata{},
				); err != nil {
					return err
				}

				if !db.Migrator().HasTable(&models.LegacyCard{}) {
					return nil
				}
				if err := m.splitLegacy(db); err != nil {
					return err
				}
				return db.Migrator().DropTable(&models.LegacyCard{})
			},
			Down: func(db *gorm.DB) error {
				if err := db.AutoMigrate(&models.LegacyCard{}); err != nil {
					return err
				}
				if err := m.joinLegacy(db); err != nil {
					return err
				}
				return db.Migrator().DropTable(
					&models.Metadata{},
					&models.CacheMeta{},
					&models.Card{},
				)
			},
		},
	}
}
