package models

import "gorm.io/datatypes"

// SearchIndexEntry is the truncated projection used by offline search
type SearchIndexEntry struct {
	ID          uint           `gorm:"primaryKey"`
	Hash        string         `gorm:"type:text;not null;index"`
	Content     string         `gorm:"type:text"`
	Title       string         `gorm:"type:text"`
	ContentType string         `gorm:"type:text"`
	Tags        datatypes.JSON `gorm:"not null"`
	LastIndexed int64          `gorm:"not null"`
}

func (SearchIndexEntry) TableName() string {
	return "search_index"
}
