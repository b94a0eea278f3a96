package cache

import (
	"time"

	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/db/models"
)

// Entry is the joined Card, CacheMeta and Metadata view of one hash.
type Entry struct {
	Hash               string
	Content            card.Content
	ContentType        string
	Size               uint64
	Timestamp          string
	Filename           string
	CachedAt           time.Time
	LastAccessed       time.Time
	IsOfflineAvailable bool
	Record             card.Record
}

// SearchHit is one matching search index row.
type SearchHit struct {
	Hash        string
	Title       string
	Content     string
	ContentType string
	Tags        []string
	LastIndexed time.Time
}

// Stats summarizes the cache contents.
type Stats struct {
	TotalItems      int64  `json:"total_items"`
	TotalSizeBytes  uint64 `json:"total_size_bytes"`
	FormattedSize   string `json:"formatted_size"`
	OldestTimestamp string `json:"oldest_timestamp,omitempty"`
	NewestTimestamp string `json:"newest_timestamp,omitempty"`
}

func newEntry(e *models.Entry, record card.Record) *Entry {
	entry := &Entry{
		Hash:               e.Card.Hash,
		Content:            card.Decode(e.Card.Content, e.Meta.ContentType),
		ContentType:        e.Meta.ContentType,
		Size:               e.Meta.Size,
		CachedAt:           time.UnixMilli(e.Meta.CachedAt),
		LastAccessed:       time.UnixMilli(e.Meta.LastAccessed),
		IsOfflineAvailable: e.Meta.IsOfflineAvailable,
		Record:             record,
	}
	if e.Card.GTime != nil {
		entry.Timestamp = *e.Card.GTime
	}
	if e.Meta.Filename != nil {
		entry.Filename = *e.Meta.Filename
	}
	return entry
}
