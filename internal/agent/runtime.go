package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mwantia/gocard/internal/api"
	"github.com/mwantia/gocard/internal/cache"
	"github.com/mwantia/gocard/internal/connectivity"
	"github.com/mwantia/gocard/internal/preload"
	"github.com/mwantia/gocard/internal/remote"
	"github.com/mwantia/gocard/internal/router"
	"github.com/mwantia/gocard/pkg/db/store"
	"github.com/mwantia/gocard/pkg/log"
	"github.com/mwantia/gocard/pkg/readiness"
	"gorm.io/gorm/logger"

	config "github.com/mwantia/gocard/internal/config/server"
)

// Runtime wires every component of the cache around one store. It is used
// by the agent and by the one-shot CLI commands.
type Runtime struct {
	Store   *store.GormStore
	Cache   *cache.Manager
	Remote  *remote.Client
	Signal  connectivity.Signal
	Monitor *connectivity.Monitor
	Gate    *readiness.Gate
	Router  *router.Router
	Preload *preload.Coordinator
	API     *api.Server
}

// OpenStore opens and connects the configured store without migrating it.
func OpenStore(ctx context.Context, cfg *config.BaseServerConfig, svc log.LoggerService) (*store.GormStore, error) {
	var (
		s   *store.GormStore
		err error
	)

	level := gormLogLevel(cfg.Database.LogLevel)
	switch cfg.Database.Type {
	case "postgres":
		s, err = store.NewPostgresStore(store.PostgresConfig{
			DSN:      cfg.Database.Postgres.DSN,
			LogLevel: level,
			Log:      svc.Named("store"),
		})
	case "sqlite", "":
		s, err = store.NewSQLiteStore(store.SQLiteConfig{
			Path:     cfg.Database.SQLite.Path,
			LogLevel: level,
			Log:      svc.Named("store"),
		})
	default:
		return nil, fmt.Errorf("unsupported database type '%s'", cfg.Database.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Connect(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", s.Dialect(), err)
	}
	return s, nil
}

// Build opens and migrates the store and composes the remaining components.
// Unless the configuration forces offline mode, the remote service is probed
// once before Build returns.
func Build(ctx context.Context, cfg *config.BaseServerConfig, svc log.LoggerService) (*Runtime, error) {
	cacheCfg, err := cache.ConfigFrom(cfg.Cache)
	if err != nil {
		return nil, err
	}

	s, err := OpenStore(ctx, cfg, svc)
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	rt := &Runtime{
		Store: s,
		Cache: cache.NewManager(s, cacheCfg, svc.Named("cache")),
		Remote: remote.New(remote.Config{
			BaseURL: cfg.Remote.BaseURL,
			Timeout: config.Duration(cfg.Remote.Timeout, remote.DefaultTimeout),
		}, svc.Named("remote")),
		Gate: readiness.New(),
	}

	if cfg.Offline {
		svc.Info("Running in offline mode")
		rt.Signal = connectivity.Static(false)
	} else {
		rt.Monitor = connectivity.NewMonitor(rt.Remote, connectivity.MonitorConfig{
			Interval:   config.Duration(cfg.Connectivity.ProbeInterval, 30*time.Second),
			Timeout:    config.Duration(cfg.Connectivity.ProbeTimeout, 1500*time.Millisecond),
			MaxBackoff: config.Duration(cfg.Connectivity.MaxBackoff, 2*time.Minute),
		}, svc.Named("connectivity"))
		rt.Monitor.Probe(ctx)
		rt.Signal = rt.Monitor
	}

	rt.Router = router.New(rt.Cache, rt.Remote, rt.Signal, svc.Named("router"))
	rt.Preload = preload.NewCoordinator(rt.Cache, rt.Remote, rt.Gate, preload.Config{
		Interval: config.Duration(cfg.Preload.Interval, preload.DefaultInterval),
		PageSize: cfg.Preload.PageSize,
	}, svc.Named("preload"))
	rt.API = api.NewServer(api.Deps{
		Router:      rt.Router,
		Cache:       rt.Cache,
		Preload:     rt.Preload,
		Gate:        rt.Gate,
		Signal:      rt.Signal,
		Health:      s.Health,
		WaitTimeout: config.Duration(cfg.Preload.WaitTimeout, 5*time.Second),
		Log:         svc.Named("api"),
	})

	return rt, nil
}

// HTTPServer returns the local API listener for address.
func (rt *Runtime) HTTPServer(address string) *http.Server {
	return &http.Server{
		Addr:              address,
		Handler:           rt.API.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Close waits for pending eviction sweeps and closes the store.
func (rt *Runtime) Close() error {
	if err := rt.Cache.Close(); err != nil {
		return err
	}
	return rt.Store.Close()
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
