package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mwantia/gocard/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var onlineGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "gocard",
		Subsystem: "connectivity",
		Name:      "online",
		Help:      "1 when the remote content service answered the last probe.",
	},
)

// Prober checks the remote content service.
type Prober interface {
	Health(ctx context.Context) error
}

type MonitorConfig struct {
	Interval   time.Duration
	Timeout    time.Duration
	MaxBackoff time.Duration
}

// Monitor probes the remote service periodically. While offline the probe
// interval backs off exponentially up to MaxBackoff.
type Monitor struct {
	prober Prober
	cfg    MonitorConfig
	log    log.LoggerService

	online atomic.Bool
	probed atomic.Bool
}

var _ Signal = (*Monitor)(nil)

func NewMonitor(prober Prober, cfg MonitorConfig, logger log.LoggerService) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 2 * time.Minute
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Monitor{
		prober: prober,
		cfg:    cfg,
		log:    logger,
	}
}

func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Probe runs a single health check and updates the signal.
func (m *Monitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	err := m.prober.Health(ctx)
	online := err == nil

	previous := m.online.Swap(online)
	first := !m.probed.Swap(true)
	switch {
	case first && online:
		m.log.Info("Remote service is reachable")
	case first:
		m.log.Warn("Remote service is unreachable, running offline: %v", err)
	case online && !previous:
		m.log.Info("Remote service is reachable again")
	case !online && previous:
		m.log.Warn("Remote service became unreachable: %v", err)
	}

	if online {
		onlineGauge.Set(1)
	} else {
		onlineGauge.Set(0)
	}
	return online
}

// Run probes until ctx ends.
func (m *Monitor) Run(ctx context.Context) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = min(time.Second, m.cfg.Interval)
	exp.MaxInterval = m.cfg.MaxBackoff
	exp.MaxElapsedTime = 0
	exp.Reset()

	for {
		wait := m.cfg.Interval
		if m.Probe(ctx) {
			exp.Reset()
		} else {
			wait = exp.NextBackOff()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
