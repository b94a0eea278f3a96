package models

// Entry is the joined view of one cached hash
type Entry struct {
	Card     Card
	Meta     CacheMeta
	Metadata Metadata
}

// Stats aggregates the cards table
type Stats struct {
	Count     int64
	SizeBytes uint64

	// Smallest and largest non-empty g_time
	Oldest string
	Newest string
}
