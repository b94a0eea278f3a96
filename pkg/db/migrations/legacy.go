package migrations

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/db/models"
	"gorm.io/gorm"
)

// splitLegacy converts every mcards row into Card, CacheMeta and Metadata.
// Each record runs in its own savepoint; a failing record is logged and
// skipped while the migration continues.
func (m *Migrator) splitLegacy(db *gorm.DB) error {
	var hashes []string
	if err := db.Model(&models.LegacyCard{}).Order("hash").Pluck("hash", &hashes).Error; err != nil {
		return fmt.Errorf("failed to list legacy records: %w", err)
	}

	now := time.Now().UnixMilli()
	converted, skipped := 0, 0

	for _, hash := range hashes {
		if err := convertLegacy(db, hash, now); err != nil {
			skipped++
			m.log.Warn("Skipping legacy record %q: %v", hash, err)
			continue
		}
		converted++
	}

	m.log.Info("Converted %d legacy records (%d skipped)", converted, skipped)
	return nil
}

// convertLegacy loads and converts one legacy record inside a savepoint, so
// a failure at any step only discards that record.
func convertLegacy(db *gorm.DB, hash string, now int64) error {
	err := db.Transaction(func(sp *gorm.DB) error {
		var legacy models.LegacyCard
		if err := sp.Where("hash = ?", hash).Take(&legacy).Error; err != nil {
			return fmt.Errorf("failed to load: %w", err)
		}
		return writeLegacy(sp, legacy, now)
	})
	if err != nil && !errors.Is(err, ErrMigrationSkipped) {
		return fmt.Errorf("%w: %v", ErrMigrationSkipped, err)
	}
	return err
}

func writeLegacy(sp *gorm.DB, legacy models.LegacyCard, now int64) error {
	if strings.TrimSpace(legacy.Hash) == "" {
		return fmt.Errorf("%w: empty hash", ErrMigrationSkipped)
	}

	var record card.Record
	if strings.TrimSpace(legacy.Metadata) != "" {
		if err := json.Unmarshal([]byte(legacy.Metadata), &record); err != nil {
			return fmt.Errorf("%w: invalid metadata: %v", ErrMigrationSkipped, err)
		}
	}

	record.Hash = legacy.Hash
	if record.ContentType == "" {
		record.ContentType = legacy.ContentType
	}
	if record.ContentType == "" && len(legacy.Content) > 0 {
		record.ContentType = card.DetectContentType(legacy.Content)
	}
	if record.Timestamp == "" && legacy.Timestamp != nil {
		record.Timestamp = *legacy.Timestamp
	}
	if record.Filename == "" && legacy.Filename != nil {
		record.Filename = *legacy.Filename
	}
	if record.Size == 0 && legacy.Size > 0 {
		record.Size = uint64(legacy.Size)
	}

	stored := ""
	if len(legacy.Content) > 0 {
		stored = card.Encode(card.FromBytes(legacy.Content, record.ContentType), record.ContentType)
	}

	metadata, err := models.NewMetadata(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMigrationSkipped, err)
	}

	entry := models.Card{
		Hash:    legacy.Hash,
		Content: stored,
	}
	if record.Timestamp != "" {
		entry.GTime = &record.Timestamp
	}

	meta := models.CacheMeta{
		Hash:               legacy.Hash,
		ContentType:        record.ContentType,
		Size:               uint64(len(stored)),
		CachedAt:           orNow(legacy.CachedAt, now),
		LastAccessed:       orNow(legacy.LastAccessed, now),
		IsOfflineAvailable: legacy.IsOfflineAvailable && stored != "",
	}
	if record.Filename != "" {
		meta.Filename = &record.Filename
	}

	if err := sp.Create(&entry).Error; err != nil {
		return err
	}
	if err := sp.Create(&meta).Error; err != nil {
		return err
	}
	return sp.Create(&metadata).Error
}

// joinLegacy is the inverse of splitLegacy, used when rolling back.
func (m *Migrator) joinLegacy(db *gorm.DB) error {
	var hashes []string
	if err := db.Model(&models.Card{}).Order("hash").Pluck("hash", &hashes).Error; err != nil {
		return fmt.Errorf("failed to list cards: %w", err)
	}

	for _, hash := range hashes {
		var (
			entry    models.Card
			meta     models.CacheMeta
			metadata models.Metadata
		)
		if err := db.Where("hash = ?", hash).Take(&entry).Error; err != nil {
			return fmt.Errorf("failed to load card %s: %w", hash, err)
		}
		if err := db.Where("hash = ?", hash).Limit(1).Find(&meta).Error; err != nil {
			return fmt.Errorf("failed to load cache meta %s: %w", hash, err)
		}
		if err := db.Where("hash = ?", hash).Limit(1).Find(&metadata).Error; err != nil {
			return fmt.Errorf("failed to load metadata %s: %w", hash, err)
		}

		legacy := models.LegacyCard{
			Hash:               hash,
			Content:            card.Bytes(card.Decode(entry.Content, meta.ContentType)),
			Metadata:           string(metadata.Metadata),
			ContentType:        meta.ContentType,
			Size:               int64(meta.Size),
			Timestamp:          entry.GTime,
			Filename:           meta.Filename,
			CachedAt:           meta.CachedAt,
			LastAccessed:       meta.LastAccessed,
			IsOfflineAvailable: meta.IsOfflineAvailable,
		}
		if err := db.Create(&legacy).Error; err != nil {
			return fmt.Errorf("failed to restore legacy record %s: %w", hash, err)
		}
	}

	m.log.Info("Restored %d legacy records", len(hashes))
	return nil
}

func orNow(ts, now int64) int64 {
	if ts <= 0 {
		return now
	}
	return ts
}
