package remote

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/log"
)

const (
	DefaultBaseURL    = "http://localhost:49384/v1"
	DefaultTimeout    = 30 * time.Second
	defaultSearchSize = 20
	jsonContentType   = "application/json"
)

// Config holds the connection to the remote content service
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the remote content service over its REST surface.
type Client struct {
	http *resty.Client
	log  log.LoggerService
}

func New(cfg Config, logger log.LoggerService) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &Client{http: c, log: logger}
}

type listResponse struct {
	Items      []card.Record `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalItems int           `json:"total_items"`
	HasNext    *bool         `json:"has_next,omitempty"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Hash           string         `json:"hash"`
	RelevanceScore *float64       `json:"relevance_score,omitempty"`
	Score          *float64       `json:"score,omitempty"`
	Snippet        string         `json:"snippet"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Fetch downloads the content of hash. When the service omits the content
// type it is sniffed from the payload.
func (c *Client) Fetch(ctx context.Context, hash string) ([]byte, string, error) {
	resp, err := c.do(ctx, "fetch", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("hash", hash).
			SetHeader("Accept", "*/*").
			Get("/card/{hash}/content")
	})
	if err != nil {
		return nil, "", err
	}

	body := resp.Body()
	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = card.DetectContentType(body)
	}
	return body, contentType, nil
}

func (c *Client) FetchMetadata(ctx context.Context, hash string) (card.Record, error) {
	var record card.Record
	_, err := c.do(ctx, "metadata", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("hash", hash).
			SetResult(&record).
			ForceContentType(jsonContentType).
			Get("/card/{hash}/metadata")
	})
	if err != nil {
		return card.Record{}, err
	}
	if record.Hash == "" {
		record.Hash = hash
	}
	return record, nil
}

// ListMetadata returns one page of the metadata listing. Pages start at 1.
func (c *Client) ListMetadata(ctx context.Context, page, pageSize int) (card.Page, error) {
	var list listResponse
	_, err := c.do(ctx, "list", func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{
			"page":      strconv.Itoa(page),
			"page_size": strconv.Itoa(pageSize),
		}).
			SetResult(&list).
			ForceContentType(jsonContentType).
			Get("/cards")
	})
	if err != nil {
		return card.Page{}, err
	}

	result := card.Page{Records: list.Items}
	if list.HasNext != nil {
		result.HasNextPage = *list.HasNext
	} else {
		size := list.PageSize
		if size <= 0 {
			size = pageSize
		}
		current := list.Page
		if current <= 0 {
			current = page
		}
		result.HasNextPage = current*size < list.TotalItems
	}
	return result, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]card.SearchResult, error) {
	var sr searchResponse
	_, err := c.do(ctx, "search", func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{
			"query":     query,
			"page":      "1",
			"page_size": strconv.Itoa(defaultSearchSize),
		}).
			SetResult(&sr).
			ForceContentType(jsonContentType).
			Get("/cards/search")
	})
	if err != nil {
		return nil, err
	}

	results := make([]card.SearchResult, 0, len(sr.Items))
	for _, item := range sr.Items {
		result := card.SearchResult{
			Hash:     item.Hash,
			Snippet:  item.Snippet,
			Metadata: item.Metadata,
		}
		switch {
		case item.RelevanceScore != nil:
			result.RelevanceScore = *item.RelevanceScore
		case item.Score != nil:
			result.RelevanceScore = *item.Score
		}
		results = append(results, result)
	}
	return results, nil
}

// Health checks that the remote service answers.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, "health", func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/health")
	})
	return err
}

func (c *Client) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	start := time.Now()
	resp, err := send(c.http.R().SetContext(ctx))
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		requestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	if resp.IsError() {
		requestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode())).Inc()
		c.log.Debug("Remote %s returned %d", op, resp.StatusCode())
		return nil, &Error{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	requestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode())).Inc()
	return resp, nil
}
