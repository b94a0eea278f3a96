package card

// Record is the metadata of a card as reported by the remote content service.
type Record struct {
	Hash        string         `json:"hash"`
	ContentType string         `json:"content_type"`
	Size        uint64         `json:"size,omitempty"`
	Timestamp   string         `json:"g_time,omitempty"`
	Filename    string         `json:"filename,omitempty"`
	Attributes  map[string]any `json:"metadata,omitempty"`
}

// Title returns a human readable title for the record: the "title"
// attribute, then the filename, then the hash.
func (r Record) Title() string {
	if t, ok := r.Attributes["title"].(string); ok && t != "" {
		return t
	}
	if r.Filename != "" {
		return r.Filename
	}
	return r.Hash
}

// Page is one page of a metadata listing.
type Page struct {
	Records     []Record
	HasNextPage bool
}

// SearchResult is a single hit returned by a search, local or remote.
type SearchResult struct {
	Hash           string         `json:"hash"`
	RelevanceScore float64        `json:"relevance_score"`
	Snippet        string         `json:"snippet"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
