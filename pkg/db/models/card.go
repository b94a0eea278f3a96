package models

// Card holds the normalized, text-safe content of one hash
type Card struct {
	Hash    string `gorm:"primaryKey;type:text"`
	Content string `gorm:"type:text;not null"`

	// Remote timestamp of the content, kept as received
	GTime *string `gorm:"column:g_time;type:text;index"`
}

func (Card) TableName() string {
	return "cards"
}

// CacheMeta holds the cache bookkeeping for one hash
type CacheMeta struct {
	Hash        string `gorm:"primaryKey;type:text"`
	ContentType string `gorm:"type:text;not null"`
	Size        uint64 `gorm:"not null"`

	// Timestamps in epoch milliseconds
	CachedAt     int64 `gorm:"not null"`
	LastAccessed int64 `gorm:"not null;index"`

	IsOfflineAvailable bool    `gorm:"not null"`
	Filename           *string `gorm:"type:text"`
}

func (CacheMeta) TableName() string {
	return "cache_meta"
}
