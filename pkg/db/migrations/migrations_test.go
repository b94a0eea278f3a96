package migrations

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "gocard.db")), &gorm.Config{
		Logger:                                   logger.Discard,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func seedLegacy(t *testing.T, db *gorm.DB) {
	t.Helper()

	gtime := "2024-03-01T10:00:00Z"
	rows := []models.LegacyCard{
		{
			Hash:               "h1",
			Content:            []byte("hello world"),
			Metadata:           `{"hash":"h1","content_type":"text/plain","metadata":{"title":"Doc"}}`,
			ContentType:        "text/plain",
			Size:               11,
			Timestamp:          &gtime,
			CachedAt:           1000,
			LastAccessed:       2000,
			IsOfflineAvailable: true,
		},
		{
			Hash:               "h2",
			Content:            []byte{0xff, 0x00, 0x01},
			ContentType:        "application/octet-stream",
			Size:               3,
			IsOfflineAvailable: true,
		},
		{
			Hash:        "h3",
			Content:     []byte("broken"),
			Metadata:    `{not json`,
			ContentType: "text/plain",
		},
	}
	require.NoError(t, db.Create(&rows).Error)
}

func TestMigrateSplitsLegacyRecords(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewMigrator(db, nil)

	require.NoError(t, m.MigrateTo(ctx, 1))
	seedLegacy(t, db)
	require.NoError(t, m.Migrate(ctx))

	assert.False(t, db.Migrator().HasTable(&models.LegacyCard{}))

	var cards []models.Card
	require.NoError(t, db.Order("hash").Find(&cards).Error)
	require.Len(t, cards, 2, "corrupt record must be skipped, not abort the migration")

	assert.Equal(t, "h1", cards[0].Hash)
	assert.Equal(t, "hello world", cards[0].Content)
	require.NotNil(t, cards[0].GTime)
	assert.Equal(t, "2024-03-01T10:00:00Z", *cards[0].GTime)

	assert.Equal(t, "h2", cards[1].Hash)
	decoded := card.Decode(cards[1].Content, "application/octet-stream")
	assert.Equal(t, card.Binary{0xff, 0x00, 0x01}, decoded)

	var meta models.CacheMeta
	require.NoError(t, db.Where("hash = ?", "h1").Take(&meta).Error)
	assert.Equal(t, uint64(11), meta.Size)
	assert.Equal(t, int64(1000), meta.CachedAt)
	assert.Equal(t, int64(2000), meta.LastAccessed)
	assert.True(t, meta.IsOfflineAvailable)

	var metadata models.Metadata
	require.NoError(t, db.Where("hash = ?", "h1").Take(&metadata).Error)
	record, err := metadata.Record()
	require.NoError(t, err)
	assert.Equal(t, "Doc", record.Title())
	assert.Equal(t, "2024-03-01T10:00:00Z", record.Timestamp)

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.True(t, s.Applied, "migration %d", s.Version)
	}
}

func TestConvertLegacyFailureKeepsTransaction(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewMigrator(db, nil)

	require.NoError(t, m.MigrateTo(ctx, 1))
	seedLegacy(t, db)
	require.NoError(t, db.AutoMigrate(&models.Card{}, &models.CacheMeta{}, &models.Metadata{}))

	now := time.Now().UnixMilli()
	err := db.Transaction(func(tx *gorm.DB) error {
		assert.ErrorIs(t, convertLegacy(tx, "missing", now), ErrMigrationSkipped)
		assert.ErrorIs(t, convertLegacy(tx, "h3", now), ErrMigrationSkipped)
		return convertLegacy(tx, "h1", now)
	})
	require.NoError(t, err)

	var hashes []string
	require.NoError(t, db.Model(&models.Card{}).Pluck("hash", &hashes).Error)
	assert.Equal(t, []string{"h1"}, hashes)

	var metaCount int64
	require.NoError(t, db.Model(&models.CacheMeta{}).Count(&metaCount).Error)
	assert.Equal(t, int64(1), metaCount)
}

func TestMigrateFreshDatabase(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewMigrator(db, nil)

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Migrate(ctx))

	for _, table := range []any{&models.Card{}, &models.CacheMeta{}, &models.Metadata{}, &models.SearchIndexEntry{}, &models.Preference{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.False(t, db.Migrator().HasTable(&models.LegacyCard{}))
}

func TestRollbackRestoresLegacyLayout(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	m := NewMigrator(db, nil)

	require.NoError(t, m.MigrateTo(ctx, 1))
	seedLegacy(t, db)
	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Rollback(ctx))

	assert.False(t, db.Migrator().HasTable(&models.Card{}))

	var legacy []models.LegacyCard
	require.NoError(t, db.Order("hash").Find(&legacy).Error)
	require.Len(t, legacy, 2)
	assert.Equal(t, []byte("hello world"), legacy[0].Content)
	assert.Equal(t, []byte{0xff, 0x00, 0x01}, legacy[1].Content)

	statuses, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[1].Applied)
}
