package router

import (
	"context"

	"github.com/mwantia/gocard/internal/cache"
	"github.com/mwantia/gocard/internal/connectivity"
	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/log"
)

const (
	offlineScore  = 0.5
	snippetLength = 200
	sourceCache   = "cache"
	sourceRemote  = "remote"
)

// Remote is the part of the remote content service the router needs.
type Remote interface {
	Fetch(ctx context.Context, hash string) ([]byte, string, error)
	FetchMetadata(ctx context.Context, hash string) (card.Record, error)
	Search(ctx context.Context, query string) ([]card.SearchResult, error)
}

// Fetched is content returned by FetchContent.
type Fetched struct {
	Hash        string
	Content     card.Content
	ContentType string
	Record      card.Record
	// Source is "cache" or "remote".
	Source string
}

// Router hides whether content comes from the cache or the network.
type Router struct {
	cache  *cache.Manager
	remote Remote
	signal connectivity.Signal
	log    log.LoggerService
}

func New(manager *cache.Manager, remote Remote, signal connectivity.Signal, logger log.LoggerService) *Router {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Router{
		cache:  manager,
		remote: remote,
		signal: signal,
		log:    logger,
	}
}

// FetchContent returns cached content when available, otherwise downloads it
// and writes it through to the cache. Metadata-only placeholders count as a
// miss.
func (r *Router) FetchContent(ctx context.Context, hash string) (*Fetched, error) {
	entry, ok := r.cache.Get(ctx, hash)
	if ok && entry.IsOfflineAvailable {
		fetchesTotal.WithLabelValues("content", sourceCache).Inc()
		return &Fetched{
			Hash:        hash,
			Content:     entry.Content,
			ContentType: entry.ContentType,
			Record:      entry.Record,
			Source:      sourceCache,
		}, nil
	}

	if !r.signal.Online() {
		fetchesTotal.WithLabelValues("content", "offline").Inc()
		return nil, &ContentUnavailableOfflineError{Hash: hash}
	}

	body, contentType, err := r.remote.Fetch(ctx, hash)
	if err != nil {
		fetchesTotal.WithLabelValues("content", "error").Inc()
		return nil, &RemoteError{Op: "fetch", Hash: hash, Err: err}
	}

	var record card.Record
	if ok {
		record = entry.Record
	}
	record.Hash = hash
	record.ContentType = contentType
	record.Size = uint64(len(body))

	content := card.FromBytes(body, contentType)
	r.cache.Put(ctx, hash, content, record)

	if text, isText := content.(card.Text); isText {
		r.cache.Index(ctx, hash, string(text), record.Title(), contentType)
	}

	fetchesTotal.WithLabelValues("content", sourceRemote).Inc()
	r.log.Debug("Fetched %s from remote (%s)", hash, contentType)

	return &Fetched{
		Hash:        hash,
		Content:     content,
		ContentType: contentType,
		Record:      record,
		Source:      sourceRemote,
	}, nil
}

// FetchMetadata returns the cached record or downloads it and stores it as a
// metadata-only entry.
func (r *Router) FetchMetadata(ctx context.Context, hash string) (card.Record, error) {
	if entry, ok := r.cache.Get(ctx, hash); ok {
		fetchesTotal.WithLabelValues("metadata", sourceCache).Inc()
		return entry.Record, nil
	}

	if !r.signal.Online() {
		fetchesTotal.WithLabelValues("metadata", "offline").Inc()
		return card.Record{}, &ContentUnavailableOfflineError{Hash: hash}
	}

	record, err := r.remote.FetchMetadata(ctx, hash)
	if err != nil {
		fetchesTotal.WithLabelValues("metadata", "error").Inc()
		return card.Record{}, &RemoteError{Op: "metadata", Hash: hash, Err: err}
	}
	record.Hash = hash

	r.cache.BulkPut(ctx, []card.Record{record})

	fetchesTotal.WithLabelValues("metadata", sourceRemote).Inc()
	return record, nil
}

// Search queries the remote service when online. Offline it falls back to
// the local index with a fixed relevance score.
func (r *Router) Search(ctx context.Context, query string) ([]card.SearchResult, error) {
	if r.signal.Online() {
		results, err := r.remote.Search(ctx, query)
		if err != nil {
			return nil, &RemoteError{Op: "search", Err: err}
		}
		return results, nil
	}

	hits := r.cache.Search(ctx, query)
	results := make([]card.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, card.SearchResult{
			Hash:           hit.Hash,
			RelevanceScore: offlineScore,
			Snippet:        snippet(hit.Content, snippetLength),
			Metadata: map[string]any{
				"title":        hit.Title,
				"content_type": hit.ContentType,
				"tags":         hit.Tags,
			},
		})
	}
	return results, nil
}

func snippet(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
