package models

// LegacyCard is the single-table layout used before the normalized schema.
// It is only read by the upgrade migration.
type LegacyCard struct {
	Hash        string `gorm:"primaryKey;type:text"`
	Content     []byte
	Metadata    string `gorm:"type:text"`
	ContentType string `gorm:"type:text"`
	Size        int64
	Timestamp   *string `gorm:"type:text"`
	Filename    *string `gorm:"type:text"`

	CachedAt           int64
	LastAccessed       int64
	IsOfflineAvailable bool
}

func (LegacyCard) TableName() string {
	return "mcards"
}
