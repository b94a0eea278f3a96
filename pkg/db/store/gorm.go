package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mwantia/gocard/pkg/db/migrations"
	"github.com/mwantia/gocard/pkg/db/models"
	"github.com/mwantia/gocard/pkg/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 100

// GormStore implements CacheStore on top of gorm. The dialect is chosen by
// the constructor (NewSQLiteStore, NewPostgresStore).
type GormStore struct {
	db           *gorm.DB
	log          log.LoggerService
	dialect      string
	maxOpenConns int
}

var _ CacheStore = (*GormStore)(nil)

// DB returns the underlying GORM database instance
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Dialect returns "sqlite" or "postgres"
func (s *GormStore) Dialect() string {
	return s.dialect
}

// Connect initializes the database connection
func (s *GormStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("connect", fmt.Errorf("failed to get database instance: %w", err))
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(s.maxOpenConns)
	sqlDB.SetMaxIdleConns(s.maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return wrap("connect", sqlDB.PingContext(ctx))
}

// Close closes the database connection
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("close", fmt.Errorf("failed to get database instance: %w", err))
	}
	return wrap("close", sqlDB.Close())
}

// Migrate runs database migrations
func (s *GormStore) Migrate(ctx context.Context) error {
	return wrap("migrate", s.Migrator().Migrate(ctx))
}

// Migrator returns the versioned migrator bound to this store
func (s *GormStore) Migrator() *migrations.Migrator {
	return migrations.NewMigrator(s.db, s.log.Named("migrations"))
}

// Health checks database connectivity
func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("health", fmt.Errorf("failed to get database instance: %w", err))
	}
	return wrap("health", sqlDB.PingContext(ctx))
}

// Card operations

// SaveCard upserts the card, its cache meta and its metadata together.
// cached_at keeps the value of the first insert.
func (s *GormStore) SaveCard(ctx context.Context, entry models.Entry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "g_time"}),
		}).Create(&entry.Card).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hash"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"content_type", "size", "last_accessed", "is_offline_available", "filename",
			}),
		}).Create(&entry.Meta).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"metadata"}),
		}).Create(&entry.Metadata).Error
	})
	return wrap("save card", err)
}

// GetEntry returns the joined view of hash, or nil when it is not stored.
func (s *GormStore) GetEntry(ctx context.Context, hash string) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hash = ?", hash).Take(&entry.Card).Error; err != nil {
			return err
		}
		if err := tx.Where("hash = ?", hash).Take(&entry.Meta).Error; err != nil {
			return err
		}
		return tx.Where("hash = ?", hash).Limit(1).Find(&entry.Metadata).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get entry", err)
	}
	return &entry, nil
}

func (s *GormStore) HasCard(ctx context.Context, hash string) (bool, error) {
	var hashes []string
	err := s.db.WithContext(ctx).
		Model(&models.Card{}).
		Where("hash = ?", hash).
		Limit(1).
		Pluck("hash", &hashes).Error
	if err != nil {
		return false, wrap("has card", err)
	}
	return len(hashes) > 0, nil
}

func (s *GormStore) TouchCard(ctx context.Context, hash string, accessedAt int64) error {
	err := s.db.WithContext(ctx).
		Model(&models.CacheMeta{}).
		Where("hash = ?", hash).
		Update("last_accessed", accessedAt).Error
	return wrap("touch card", err)
}

// SaveMetadataBatch stores metadata for many hashes in one transaction.
// Cards and cache meta are only inserted when absent so cached content is
// never replaced by a placeholder; metadata is always upserted.
func (s *GormStore) SaveMetadataBatch(ctx context.Context, entries []models.Entry) error {
	entries = dedupe(entries)
	if len(entries) == 0 {
		return nil
	}

	cards := make([]models.Card, 0, len(entries))
	metas := make([]models.CacheMeta, 0, len(entries))
	metadata := make([]models.Metadata, 0, len(entries))
	for _, e := range entries {
		cards = append(cards, e.Card)
		metas = append(metas, e.Meta)
		metadata = append(metadata, e.Metadata)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&cards, batchSize).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&metas, batchSize).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"metadata"}),
		}).CreateInBatches(&metadata, batchSize).Error
	})
	return wrap("save metadata batch", err)
}

// DeleteCards removes hashes from all four tables and returns the number of
// cards deleted.
func (s *GormStore) DeleteCards(ctx context.Context, hashes ...string) (int64, error) {
	if len(hashes) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteHashes(tx, hashes)
		deleted = n
		return err
	})
	if err != nil {
		return 0, wrap("delete cards", err)
	}
	return deleted, nil
}

// EvictOldest removes the limit entries with the smallest last_accessed and
// returns their hashes.
func (s *GormStore) EvictOldest(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	var hashes []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CacheMeta{}).
			Order("last_accessed ASC").
			Order("hash ASC").
			Limit(limit).
			Pluck("hash", &hashes).Error; err != nil {
			return err
		}

		_, err := deleteHashes(tx, hashes)
		return err
	})
	if err != nil {
		return nil, wrap("evict oldest", err)
	}
	return hashes, nil
}

// Clear removes every row of the four cache tables. Preferences are kept.
func (s *GormStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range cacheTables() {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return wrap("clear", err)
}

// Aggregates

// Usage returns the number of cards and the summed cache meta size.
func (s *GormStore) Usage(ctx context.Context) (int64, uint64, error) {
	var (
		count int64
		size  int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Card{}).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.CacheMeta{}).
			Select("CAST(COALESCE(SUM(size), 0) AS BIGINT)").
			Scan(&size).Error
	})
	if err != nil {
		return 0, 0, wrap("usage", err)
	}
	return count, uint64(size), nil
}

func (s *GormStore) Stats(ctx context.Context) (models.Stats, error) {
	count, size, err := s.Usage(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	var bounds struct {
		Oldest *string
		Newest *string
	}
	err = s.db.WithContext(ctx).
		Model(&models.Card{}).
		Select("MIN(g_time) AS oldest, MAX(g_time) AS newest").
		Where("g_time IS NOT NULL AND g_time <> ''").
		Scan(&bounds).Error
	if err != nil {
		return models.Stats{}, wrap("stats", err)
	}

	stats := models.Stats{
		Count:     count,
		SizeBytes: size,
	}
	if bounds.Oldest != nil {
		stats.Oldest = *bounds.Oldest
	}
	if bounds.Newest != nil {
		stats.Newest = *bounds.Newest
	}
	return stats, nil
}

// Search index operations

// SaveSearchEntry replaces every index row of entry.Hash with entry.
func (s *GormStore) SaveSearchEntry(ctx context.Context, entry *models.SearchIndexEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("hash = ?", entry.Hash).Delete(&models.SearchIndexEntry{}).Error; err != nil {
			return err
		}
		entry.ID = 0
		return tx.Create(entry).Error
	})
	return wrap("save search entry", err)
}

// SearchEntries returns the index rows whose content, title or any tag
// contains query, ignoring case. A LIKE prefilter narrows the candidates for
// ASCII queries; every candidate is verified here since SQL lower-casing is
// ASCII-only in SQLite.
func (s *GormStore) SearchEntries(ctx context.Context, query string) ([]models.SearchIndexEntry, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	db := s.db.WithContext(ctx).Model(&models.SearchIndexEntry{})
	if isASCII(q) {
		pattern := "%" + escapeLike(q) + "%"
		db = db.Where(
			"LOWER(content) LIKE ? ESCAPE '\\' OR LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(CAST(tags AS TEXT)) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}

	var candidates []models.SearchIndexEntry
	if err := db.Order("last_indexed DESC").Order("id ASC").Find(&candidates).Error; err != nil {
		return nil, wrap("search entries", err)
	}

	matches := candidates[:0]
	for _, entry := range candidates {
		if entryMatches(entry, q) {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

// Preference operations

// GetPreference returns the stored preference, or nil when key is unset.
func (s *GormStore) GetPreference(ctx context.Context, key string) (*models.Preference, error) {
	var pref models.Preference
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get preference", err)
	}
	return &pref, nil
}

func (s *GormStore) SetPreference(ctx context.Context, key string, value datatypes.JSON) error {
	pref := models.Preference{
		Key:   key,
		Value: value,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	return wrap("set preference", err)
}

func cacheTables() []any {
	return []any{
		&models.SearchIndexEntry{},
		&models.Metadata{},
		&models.CacheMeta{},
		&models.Card{},
	}
}

func deleteHashes(tx *gorm.DB, hashes []string) (int64, error) {
	if len(hashes) == 0 {
		return 0, nil
	}

	var deleted int64
	for _, model := range cacheTables() {
		result := tx.Where("hash IN ?", hashes).Delete(model)
		if result.Error != nil {
			return 0, result.Error
		}
		if _, ok := model.(*models.Card); ok {
			deleted = result.RowsAffected
		}
	}
	return deleted, nil
}

// dedupe keeps the last entry of every hash, preserving first-seen order.
func dedupe(entries []models.Entry) []models.Entry {
	index := make(map[string]int, len(entries))
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Card.Hash]; ok {
			out[i] = e
			continue
		}
		index[e.Card.Hash] = len(out)
		out = append(out, e)
	}
	return out
}

func entryMatches(entry models.SearchIndexEntry, q string) bool {
	if strings.Contains(strings.ToLower(entry.Content), q) ||
		strings.Contains(strings.ToLower(entry.Title), q) {
		return true
	}

	var tags []string
	if err := json.Unmarshal(entry.Tags, &tags); err != nil {
		return false
	}
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
