package server

import (
	"time"

	"github.com/dustin/go-humanize"
)

// CacheServerConfig holds the eviction thresholds of the content cache
type CacheServerConfig struct {
	MaxSize       string  `mapstructure:"max_size"       yaml:"max_size"       validate:"required"`
	MaxItems      int     `mapstructure:"max_items"      yaml:"max_items"      validate:"gt=0"`
	SweepFraction float64 `mapstructure:"sweep_fraction" yaml:"sweep_fraction" validate:"gt=0,lte=1"`
	MinSweep      int     `mapstructure:"min_sweep"      yaml:"min_sweep"      validate:"gte=1"`
}

// MaxSizeBytes parses MaxSize ("100MiB", "50 MB", "1048576").
func (c CacheServerConfig) MaxSizeBytes() (uint64, error) {
	return humanize.ParseBytes(c.MaxSize)
}

// RemoteServerConfig holds the connection to the remote content service
type RemoteServerConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	Timeout string `mapstructure:"timeout"  yaml:"timeout"`
}

// PreloadServerConfig controls the background metadata preload
type PreloadServerConfig struct {
	Enabled     bool   `mapstructure:"enabled"      yaml:"enabled"`
	Interval    string `mapstructure:"interval"     yaml:"interval"`
	PageSize    int    `mapstructure:"page_size"    yaml:"page_size"    validate:"gt=0,lte=1000"`
	WaitTimeout string `mapstructure:"wait_timeout" yaml:"wait_timeout"`
}

// ConnectivityServerConfig controls the health probe of the remote service
type ConnectivityServerConfig struct {
	ProbeInterval string `mapstructure:"probe_interval" yaml:"probe_interval"`
	ProbeTimeout  string `mapstructure:"probe_timeout"  yaml:"probe_timeout"`
	MaxBackoff    string `mapstructure:"max_backoff"    yaml:"max_backoff"`
}

// HTTPServerConfig holds the local API listener
type HTTPServerConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
}

// Duration parses value, falling back when it is empty or invalid.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := parseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}
