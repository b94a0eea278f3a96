package preload

import (
	"context"
	"sync"
	"time"

	"github.com/mwantia/gocard/internal/cache"
	"github.com/mwantia/gocard/pkg/card"
	"github.com/mwantia/gocard/pkg/log"
	"github.com/mwantia/gocard/pkg/readiness"
)

const (
	// LastRunKey is the preference holding the last preload time in epoch
	// milliseconds.
	LastRunKey = "preload.last_run"

	DefaultInterval = 15 * time.Minute
	DefaultPageSize = 100
)

type State int

const (
	Idle State = iota
	Syncing
)

func (s State) String() string {
	if s == Syncing {
		return "syncing"
	}
	return "idle"
}

// Lister pages through the remote metadata listing. Pages start at 1.
type Lister interface {
	ListMetadata(ctx context.Context, page, pageSize int) (card.Page, error)
}

type Config struct {
	Interval time.Duration
	PageSize int
}

// Result describes one PreloadAll call.
type Result struct {
	Skipped bool
	Pages   int
	Records int
	Err     error
}

// Coordinator copies remote metadata into the cache and opens the readiness
// gate once the first pass has finished, whatever its outcome.
type Coordinator struct {
	cache  *cache.Manager
	lister Lister
	gate   *readiness.Gate
	cfg    Config
	log    log.LoggerService
	now    func() time.Time

	mu    sync.Mutex
	state State
}

type Option func(*Coordinator)

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

func NewCoordinator(manager *cache.Manager, lister Lister, gate *readiness.Gate, cfg Config, logger log.LoggerService, opts ...Option) *Coordinator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	c := &Coordinator{
		cache:  manager,
		lister: lister,
		gate:   gate,
		cfg:    cfg,
		log:    logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PreloadAll runs one pass unless the previous one is more recent than the
// interval (ignored with force) or another pass is still running. Failures
// are logged and never returned; the readiness gate is signaled in every
// case.
func (c *Coordinator) PreloadAll(ctx context.Context, force bool) Result {
	defer func() {
		if c.gate.Signal() {
			c.log.Debug("Readiness gate opened")
		}
	}()

	if !force {
		var lastRun int64
		if c.cache.Preference(ctx, LastRunKey, &lastRun) {
			elapsed := c.now().Sub(time.UnixMilli(lastRun))
			if elapsed < c.cfg.Interval {
				c.log.Debug("Skipping preload, last run %s ago", elapsed.Truncate(time.Second))
				return Result{Skipped: true}
			}
		}
	}

	if !c.begin() {
		c.log.Debug("Skipping preload, another pass is running")
		return Result{Skipped: true}
	}
	defer c.end()

	records, pages, err := c.collect(ctx)
	if err != nil {
		c.log.Warn("Preload aborted after %d pages: %v", pages, err)
	}

	if len(records) > 0 {
		c.cache.BulkPut(ctx, records)
		c.cache.SetPreference(ctx, LastRunKey, c.now().UnixMilli())
		preloadedTotal.Add(float64(len(records)))
	}

	runsTotal.WithLabelValues(outcome(err)).Inc()
	c.log.Info("Preloaded metadata for %d entries from %d pages", len(records), pages)

	return Result{Pages: pages, Records: len(records), Err: err}
}

// Run performs one pass immediately and then one per interval until ctx ends.
func (c *Coordinator) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = c.cfg.Interval
	}

	c.PreloadAll(ctx, false)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PreloadAll(ctx, false)
		}
	}
}

func (c *Coordinator) collect(ctx context.Context) ([]card.Record, int, error) {
	var records []card.Record

	for page := 1; ; page++ {
		result, err := c.lister.ListMetadata(ctx, page, c.cfg.PageSize)
		if err != nil {
			return records, page - 1, err
		}

		records = append(records, result.Records...)
		if !result.HasNextPage || len(result.Records) == 0 {
			return records, page, nil
		}
	}
}

func (c *Coordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Syncing {
		return false
	}
	c.state = Syncing
	return true
}

func (c *Coordinator) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
}

func outcome(err error) string {
	if err != nil {
		return "partial"
	}
	return "complete"
}
