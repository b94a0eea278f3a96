package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	"github.com/mwantia/gocard/internal/connectivity"
	"github.com/mwantia/gocard/pkg/db/store"
	"github.com/mwantia/gocard/pkg/log"

	config "github.com/mwantia/gocard/internal/config/server"
)

type GoCardAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService
	rt  *Runtime
}

func NewAgent(cfg *config.BaseServerConfig) *GoCardAgent {
	return &GoCardAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("gocard", cfg.Log),
	}
}

func (gca *GoCardAgent) setupServices() error {
	errs := container.Errors{}

	gca.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](gca.sc,
		container.With[log.LoggerService](),
		container.WithInstance(gca.log)))

	gca.log.Debug("Registering 'CacheStore'...")
	errs.Add(container.Register[store.GormStore](gca.sc,
		container.With[store.CacheStore](),
		container.WithInstance(gca.rt.Store)))

	if gca.rt.Monitor != nil {
		gca.log.Debug("Registering 'Signal'...")
		errs.Add(container.Register[connectivity.Monitor](gca.sc,
			container.With[connectivity.Signal](),
			container.WithInstance(gca.rt.Monitor)))
	}

	return errs.Errors()
}

func (gca *GoCardAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	gca.mutex.Lock()

	rt, err := Build(ctx, gca.cfg, gca.log)
	if err != nil {
		gca.mutex.Unlock()
		return fmt.Errorf("failed to build runtime: %w", err)
	}
	gca.rt = rt

	if err := gca.setupServices(); err != nil {
		gca.mutex.Unlock()
		_ = rt.Close()
		return err
	}

	server := rt.HTTPServer(gca.cfg.HTTP.Address)
	gca.start(ctx, server)

	gca.mutex.Unlock()
	<-ctx.Done()

	gca.log.Info("Shutting down...")

	timeout, err := time.ParseDuration(gca.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdown); err != nil {
		gca.log.Warn("Failed to shut down HTTP server: %v", err)
	}

	gca.wait.Wait()

	if err := gca.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	return rt.Close()
}

func (gca *GoCardAgent) start(ctx context.Context, server *http.Server) {
	if gca.rt.Monitor != nil {
		gca.wait.Add(1)
		go func() {
			defer gca.wait.Done()
			gca.rt.Monitor.Run(ctx)
		}()
	}

	if gca.cfg.Preload.Enabled {
		every := config.Duration(gca.cfg.Preload.Interval, 15*time.Minute)
		gca.wait.Add(1)
		go func() {
			defer gca.wait.Done()
			gca.rt.Preload.Run(ctx, every)
		}()
	} else {
		// Nothing will ever preload; consumers must not wait for it.
		gca.rt.Gate.Signal()
	}

	if gca.cfg.HTTP.Address == "" {
		return
	}

	gca.wait.Add(1)
	go func() {
		defer gca.wait.Done()
		gca.log.Info("Serving local API on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			gca.log.Error("Local API stopped: %v", err)
		}
	}()
}
