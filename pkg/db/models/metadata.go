package models

import (
	"encoding/json"
	"fmt"

	"github.com/mwantia/gocard/pkg/card"
	"gorm.io/datatypes"
)

// Metadata holds the full remote record of one hash
type Metadata struct {
	Hash     string         `gorm:"primaryKey;type:text"`
	Metadata datatypes.JSON `gorm:"column:metadata;not null"`
}

func (Metadata) TableName() string {
	return "metadata"
}

// NewMetadata serializes record into a Metadata row.
func NewMetadata(record card.Record) (Metadata, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to encode metadata for %s: %w", record.Hash, err)
	}
	return Metadata{
		Hash:     record.Hash,
		Metadata: datatypes.JSON(data),
	}, nil
}

// Record decodes the stored remote record.
func (m Metadata) Record() (card.Record, error) {
	var record card.Record
	if len(m.Metadata) == 0 {
		return card.Record{Hash: m.Hash}, nil
	}
	if err := json.Unmarshal(m.Metadata, &record); err != nil {
		return card.Record{}, fmt.Errorf("failed to decode metadata for %s: %w", m.Hash, err)
	}
	if record.Hash == "" {
		record.Hash = m.Hash
	}
	return record, nil
}
