package models

import "gorm.io/datatypes"

// Preference is a JSON-valued client setting
type Preference struct {
	Key       string         `gorm:"primaryKey;type:text"`
	Value     datatypes.JSON `gorm:"type:text;not null"`
	UpdatedAt int64          `gorm:"autoUpdateTime:milli"`
}

func (Preference) TableName() string {
	return "preferences"
}
