package cache

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/dustin/go-humanize"
	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/db/models"
	"github.com/mwantia/gocard/pkg/db/store"
	"github.com/mwantia/gocard/pkg/log"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

// Manager is the only path to the local store. Storage failures are logged
// and swallowed; Get reports them as a miss.
type Manager struct {
	store store.CacheStore
	cfg   Config
	log   log.LoggerService
	now   func() time.Time

	markdown *converter.Converter

	sweeps singleflight.Group
	// sweepMu orders wg.Add against wg.Wait.
	sweepMu sync.Mutex
	wg      sync.WaitGroup
}

type Option func(*Manager)

// WithClock overrides the clock used for cached_at and last_accessed.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(s store.CacheStore, cfg Config, logger log.LoggerService, opts ...Option) *Manager {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	m := &Manager{
		store:    s,
		cfg:      cfg.withDefaults(),
		log:      logger,
		now:      time.Now,
		markdown: newMarkdownConverter(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Put normalizes content to its stored text form and upserts the card, its
// cache meta and its metadata. An eviction sweep is scheduled afterwards.
func (m *Manager) Put(ctx context.Context, hash string, content card.Content, record card.Record) {
	record.Hash = hash
	if record.Size == 0 && content != nil {
		record.Size = uint64(content.Len())
	}

	stored := card.Encode(content, record.ContentType)
	now := m.now().UnixMilli()

	metadata, err := models.NewMetadata(record)
	if err != nil {
		m.storageError("put", err)
		return
	}

	entry := models.Entry{
		Card: models.Card{
			Hash:    hash,
			Content: stored,
		},
		Meta: models.CacheMeta{
			Hash:               hash,
			ContentType:        record.ContentType,
			Size:               uint64(len(stored)),
			CachedAt:           now,
			LastAccessed:       now,
			IsOfflineAvailable: true,
		},
		Metadata: metadata,
	}
	if record.Timestamp != "" {
		entry.Card.GTime = &record.Timestamp
	}
	if record.Filename != "" {
		entry.Meta.Filename = &record.Filename
	}

	if err := m.store.SaveCard(ctx, entry); err != nil {
		m.storageError("put", err)
		return
	}

	writesTotal.WithLabelValues("content").Inc()
	m.log.Debug("Cached %s (%s, %s)", hash, record.ContentType, humanize.IBytes(uint64(len(stored))))
	m.scheduleEvict(ctx)
}

// Get returns the joined view of hash and refreshes its last access time.
func (m *Manager) Get(ctx context.Context, hash string) (*Entry, bool) {
	e, err := m.store.GetEntry(ctx, hash)
	if err != nil {
		m.storageError("get", err)
		lookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if e == nil {
		lookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	now := m.now().UnixMilli()
	if err := m.store.TouchCard(ctx, hash, now); err != nil {
		m.storageError("touch", err)
	} else {
		e.Meta.LastAccessed = now
	}

	record, err := e.Metadata.Record()
	if err != nil {
		m.log.Warn("Unreadable metadata for %s: %v", hash, err)
		record = card.Record{Hash: hash, ContentType: e.Meta.ContentType}
	}

	lookupsTotal.WithLabelValues("hit").Inc()
	return newEntry(e, record), true
}

// Exists checks the cards table only.
func (m *Manager) Exists(ctx context.Context, hash string) bool {
	ok, err := m.store.HasCard(ctx, hash)
	if err != nil {
		m.storageError("exists", err)
		return false
	}
	return ok
}

// BulkPut stores metadata-only placeholders for records in one transaction.
// Existing cards keep their content; metadata is refreshed.
func (m *Manager) BulkPut(ctx context.Context, records []card.Record) {
	now := m.now().UnixMilli()

	entries := make([]models.Entry, 0, len(records))
	for _, record := range records {
		if record.Hash == "" {
			m.log.Warn("Ignoring metadata record without hash")
			continue
		}

		metadata, err := models.NewMetadata(record)
		if err != nil {
			m.log.Warn("Ignoring metadata record %s: %v", record.Hash, err)
			continue
		}

		entry := models.Entry{
			Card: models.Card{Hash: record.Hash},
			Meta: models.CacheMeta{
				Hash:         record.Hash,
				ContentType:  record.ContentType,
				CachedAt:     now,
				LastAccessed: now,
			},
			Metadata: metadata,
		}
		if record.Timestamp != "" {
			entry.Card.GTime = &record.Timestamp
		}
		if record.Filename != "" {
			entry.Meta.Filename = &record.Filename
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return
	}

	if err := m.store.SaveMetadataBatch(ctx, entries); err != nil {
		m.storageError("bulk put", err)
		return
	}

	writesTotal.WithLabelValues("metadata").Add(float64(len(entries)))
	m.log.Info("Stored metadata for %d entries", len(entries))
	m.scheduleEvict(ctx)
}

// Index rebuilds the search index row of hash.
func (m *Manager) Index(ctx context.Context, hash, content, title, contentType string) {
	text := m.indexText(content, contentType)

	tags, err := json.Marshal(extractTags(text, m.cfg.MaxTags))
	if err != nil {
		m.storageError("index", err)
		return
	}

	entry := &models.SearchIndexEntry{
		Hash:        hash,
		Content:     truncateRunes(text, m.cfg.IndexPrefix),
		Title:       title,
		ContentType: contentType,
		Tags:        datatypes.JSON(tags),
		LastIndexed: m.now().UnixMilli(),
	}
	if err := m.store.SaveSearchEntry(ctx, entry); err != nil {
		m.storageError("index", err)
	}
}

// Search matches query against indexed content, titles and tags.
func (m *Manager) Search(ctx context.Context, query string) []SearchHit {
	entries, err := m.store.SearchEntries(ctx, query)
	if err != nil {
		m.storageError("search", err)
		return nil
	}

	hits := make([]SearchHit, 0, len(entries))
	for _, e := range entries {
		var tags []string
		_ = json.Unmarshal(e.Tags, &tags)

		hits = append(hits, SearchHit{
			Hash:        e.Hash,
			Title:       e.Title,
			Content:     e.Content,
			ContentType: e.ContentType,
			Tags:        tags,
			LastIndexed: time.UnixMilli(e.LastIndexed),
		})
	}
	return hits
}

func (m *Manager) Stats(ctx context.Context) Stats {
	s, err := m.store.Stats(ctx)
	if err != nil {
		m.storageError("stats", err)
		return Stats{FormattedSize: humanize.IBytes(0)}
	}

	return Stats{
		TotalItems:      s.Count,
		TotalSizeBytes:  s.SizeBytes,
		FormattedSize:   humanize.IBytes(s.SizeBytes),
		OldestTimestamp: s.Oldest,
		NewestTimestamp: s.Newest,
	}
}

// Evict runs one sweep: when the cache exceeds either ceiling, the
// max(MinSweep, count*SweepFraction) least recently accessed entries are
// removed together. It returns the number of removed entries.
func (m *Manager) Evict(ctx context.Context) int {
	count, size, err := m.store.Usage(ctx)
	if err != nil {
		m.storageError("evict", err)
		return 0
	}

	if size <= m.cfg.MaxSizeBytes && count <= int64(m.cfg.MaxItems) {
		return 0
	}

	limit := int(math.Floor(float64(count) * m.cfg.SweepFraction))
	if limit < m.cfg.MinSweep {
		limit = m.cfg.MinSweep
	}

	evicted, err := m.store.EvictOldest(ctx, limit)
	if err != nil {
		m.storageError("evict", err)
		return 0
	}

	evictedTotal.Add(float64(len(evicted)))
	m.log.Info("Evicted %d entries (items: %d/%d, size: %s/%s)",
		len(evicted), count, m.cfg.MaxItems, humanize.IBytes(size), humanize.IBytes(m.cfg.MaxSizeBytes))
	return len(evicted)
}

// Wait blocks until every scheduled sweep has finished. Sweeps scheduled
// while Wait blocks are held until it returns.
func (m *Manager) Wait() {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()
	m.wg.Wait()
}

// Close waits for pending sweeps. The store is owned by the caller.
func (m *Manager) Close() error {
	m.Wait()
	return nil
}

func (m *Manager) scheduleEvict(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	m.sweepMu.Lock()
	m.wg.Add(1)
	m.sweepMu.Unlock()

	go func() {
		defer m.wg.Done()
		_, _, _ = m.sweeps.Do("evict", func() (any, error) {
			return m.Evict(ctx), nil
		})
	}()
}

// Clear removes every cached entry. Preferences are kept.
func (m *Manager) Clear(ctx context.Context) {
	m.Wait()
	if err := m.store.Clear(ctx); err != nil {
		m.storageError("clear", err)
		return
	}
	m.log.Info("Cache cleared")
}

// Delete removes hash from every cache table.
func (m *Manager) Delete(ctx context.Context, hash string) bool {
	n, err := m.store.DeleteCards(ctx, hash)
	if err != nil {
		m.storageError("delete", err)
		return false
	}
	return n > 0
}

// Preference decodes the JSON value stored under key into dst.
func (m *Manager) Preference(ctx context.Context, key string, dst any) bool {
	pref, err := m.store.GetPreference(ctx, key)
	if err != nil {
		m.storageError("preference", err)
		return false
	}
	if pref == nil {
		return false
	}

	if err := json.Unmarshal(pref.Value, dst); err != nil {
		m.log.Warn("Unreadable preference %s: %v", key, err)
		return false
	}
	return true
}

func (m *Manager) SetPreference(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		m.log.Warn("Unable to encode preference %s: %v", key, err)
		return
	}
	if err := m.store.SetPreference(ctx, key, datatypes.JSON(data)); err != nil {
		m.storageError("set preference", err)
	}
}

func (m *Manager) storageError(op string, err error) {
	storageErrorsTotal.WithLabelValues(op).Inc()
	m.log.Error("Cache %s failed: %v", op, err)
}
