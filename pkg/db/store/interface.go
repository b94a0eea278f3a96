package store

import (
	"context"

	"github.com/mwantia/gocard/pkg/db/models"
	"gorm.io/datatypes"
)

// CacheStore defines the interface for database operations. Every method
// touching more than one table runs in a single transaction.
type CacheStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Card operations
	SaveCard(ctx context.Context, entry models.Entry) error
	GetEntry(ctx context.Context, hash string) (*models.Entry, error)
	HasCard(ctx context.Context, hash string) (bool, error)
	TouchCard(ctx context.Context, hash string, accessedAt int64) error
	SaveMetadataBatch(ctx context.Context, entries []models.Entry) error
	DeleteCards(ctx context.Context, hashes ...string) (int64, error)
	EvictOldest(ctx context.Context, limit int) ([]string, error)
	Clear(ctx context.Context) error

	// Aggregates
	Usage(ctx context.Context) (int64, uint64, error)
	Stats(ctx context.Context) (models.Stats, error)

	// Search index operations
	SaveSearchEntry(ctx context.Context, entry *models.SearchIndexEntry) error
	SearchEntries(ctx context.Context, query string) ([]models.SearchIndexEntry, error)

	// Preference operations
	GetPreference(ctx context.Context, key string) (*models.Preference, error)
	SetPreference(ctx context.Context, key string, value datatypes.JSON) error
}
