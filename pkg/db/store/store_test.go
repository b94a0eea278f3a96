package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()

	s, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "gocard.db")})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func testEntry(t *testing.T, hash, content string, accessed int64, gtime string) models.Entry {
	t.Helper()

	record := card.Record{Hash: hash, ContentType: "text/plain", Size: uint64(len(content)), Timestamp: gtime}
	metadata, err := models.NewMetadata(record)
	require.NoError(t, err)

	entry := models.Entry{
		Card: models.Card{Hash: hash, Content: content},
		Meta: models.CacheMeta{
			Hash:               hash,
			ContentType:        "text/plain",
			Size:               uint64(len(content)),
			CachedAt:           accessed,
			LastAccessed:       accessed,
			IsOfflineAvailable: true,
		},
		Metadata: metadata,
	}
	if gtime != "" {
		entry.Card.GTime = &gtime
	}
	return entry
}

func TestSaveCardUpserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveCard(ctx, testEntry(t, "h1", "first", 10, "")))
	require.NoError(t, s.SaveCard(ctx, testEntry(t, "h1", "second version", 20, "")))

	entry, err := s.GetEntry(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "second version", entry.Card.Content)
	assert.Equal(t, uint64(14), entry.Meta.Size)
	assert.Equal(t, int64(10), entry.Meta.CachedAt)
	assert.Equal(t, int64(20), entry.Meta.LastAccessed)

	count, size, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, uint64(14), size)
}

func TestGetEntryMiss(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.GetEntry(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, entry)

	ok, err := s.HasCard(context.Background(), "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveMetadataBatchKeepsContent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveCard(ctx, testEntry(t, "h1", "cached", 5, "")))

	placeholder := testEntry(t, "h1", "", 99, "2024-01-01")
	placeholder.Meta.IsOfflineAvailable = false
	fresh := testEntry(t, "h2", "", 99, "2024-02-01")
	fresh.Meta.IsOfflineAvailable = false

	require.NoError(t, s.SaveMetadataBatch(ctx, []models.Entry{placeholder, fresh}))

	entry, err := s.GetEntry(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "cached", entry.Card.Content)
	assert.True(t, entry.Meta.IsOfflineAvailable)

	record, err := entry.Metadata.Record()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", record.Timestamp, "metadata is always refreshed")

	entry, err = s.GetEntry(ctx, "h2")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Empty(t, entry.Card.Content)
	assert.False(t, entry.Meta.IsOfflineAvailable)
}

func TestSaveMetadataBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	crash := errors.New("simulated crash before commit")
	require.NoError(t, s.DB().Callback().Create().Before("gorm:create").Register("test:crash", func(tx *gorm.DB) {
		if tx.Statement.Table == "metadata" {
			_ = tx.AddError(crash)
		}
	}))

	entries := make([]models.Entry, 0, 25)
	for i := 0; i < 25; i++ {
		e := testEntry(t, fmt.Sprintf("h%02d", i), "", 1, "")
		e.Meta.IsOfflineAvailable = false
		entries = append(entries, e)
	}

	err := s.SaveMetadataBatch(ctx, entries)
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.ErrorIs(t, err, crash)

	count, _, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	var metas int64
	require.NoError(t, s.DB().Model(&models.CacheMeta{}).Count(&metas).Error)
	assert.Equal(t, int64(0), metas)
}

func TestEvictOldest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 6; i++ {
		require.NoError(t, s.SaveCard(ctx, testEntry(t, fmt.Sprintf("h%d", i), "x", int64(100-i), "")))
		require.NoError(t, s.SaveSearchEntry(ctx, &models.SearchIndexEntry{
			Hash: fmt.Sprintf("h%d", i), Content: "x", Tags: datatypes.JSON("[]"),
		}))
	}

	evicted, err := s.EvictOldest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"h5", "h4"}, evicted)

	for _, hash := range evicted {
		ok, err := s.HasCard(ctx, hash)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	var indexed int64
	require.NoError(t, s.DB().Model(&models.SearchIndexEntry{}).Count(&indexed).Error)
	assert.Equal(t, int64(4), indexed)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveCard(ctx, testEntry(t, "a", "1", 1, "")))
	require.NoError(t, s.SaveCard(ctx, testEntry(t, "b", "2", 2, "")))
	require.NoError(t, s.SetPreference(ctx, "theme", datatypes.JSON(`"dark"`)))

	n, err := s.DeleteCards(ctx, "a", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.Clear(ctx))

	count, size, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, size)

	pref, err := s.GetPreference(ctx, "theme")
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.JSONEq(t, `"dark"`, string(pref.Value))
}

func TestStatsTimestampBounds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveCard(ctx, testEntry(t, "a", "aa", 1, "2024-05-01T00:00:00Z")))
	require.NoError(t, s.SaveCard(ctx, testEntry(t, "b", "bbb", 2, "2023-01-01T00:00:00Z")))
	require.NoError(t, s.SaveCard(ctx, testEntry(t, "c", "c", 3, "")))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, uint64(6), stats.SizeBytes)
	assert.Equal(t, "2023-01-01T00:00:00Z", stats.Oldest)
	assert.Equal(t, "2024-05-01T00:00:00Z", stats.Newest)
}

func TestSearchEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveSearchEntry(ctx, &models.SearchIndexEntry{
		Hash: "h1", Content: "Hello World", Title: "Greeting", Tags: datatypes.JSON(`["hello","world"]`),
	}))
	require.NoError(t, s.SaveSearchEntry(ctx, &models.SearchIndexEntry{
		Hash: "h2", Content: "100% natural", Title: "Über uns", Tags: datatypes.JSON(`["natural"]`),
	}))
	// Re-indexing replaces the previous row.
	require.NoError(t, s.SaveSearchEntry(ctx, &models.SearchIndexEntry{
		Hash: "h1", Content: "Hello again", Title: "Greeting", Tags: datatypes.JSON(`["hello","again"]`),
	}))

	hits, err := s.SearchEntries(ctx, "HELLO")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Hello again", hits[0].Content)

	hits, err = s.SearchEntries(ctx, "world")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = s.SearchEntries(ctx, "0%")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "h2", hits[0].Hash)

	hits, err = s.SearchEntries(ctx, "über")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "h2", hits[0].Hash)

	hits, err = s.SearchEntries(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pref, err := s.GetPreference(ctx, "preload.last_run")
	require.NoError(t, err)
	assert.Nil(t, pref)

	require.NoError(t, s.SetPreference(ctx, "preload.last_run", datatypes.JSON(`1`)))
	require.NoError(t, s.SetPreference(ctx, "preload.last_run", datatypes.JSON(`2`)))

	pref, err = s.GetPreference(ctx, "preload.last_run")
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.JSONEq(t, `2`, string(pref.Value))
	assert.NotZero(t, pref.UpdatedAt)

	values := map[string]string{
		"epoch":  `1700000000000`,
		"float":  `0.5`,
		"string": `"dark"`,
		"object": `{"enabled":true}`,
	}
	for key, value := range values {
		require.NoError(t, s.SetPreference(ctx, key, datatypes.JSON(value)))

		pref, err := s.GetPreference(ctx, key)
		require.NoError(t, err, key)
		require.NotNil(t, pref, key)
		assert.JSONEq(t, value, string(pref.Value), key)
	}
}
