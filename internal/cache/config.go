package cache

import (
	"fmt"

	config "github.com/mwantia/gocard/internal/config/server"
)

// Config bounds the cache. A sweep runs when either ceiling is exceeded.
type Config struct {
	MaxSizeBytes  uint64
	MaxItems      int
	SweepFraction float64
	MinSweep      int

	// Search index limits
	IndexPrefix int
	MaxTags     int
}

func DefaultConfig() Config {
	return Config{
		MaxSizeBytes:  100 * 1024 * 1024,
		MaxItems:      1000,
		SweepFraction: 0.1,
		MinSweep:      50,
		IndexPrefix:   1000,
		MaxTags:       20,
	}
}

// ConfigFrom maps the cache section of the server configuration.
func ConfigFrom(cfg config.CacheServerConfig) (Config, error) {
	size, err := cfg.MaxSizeBytes()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse cache max size: %w", err)
	}

	c := DefaultConfig()
	c.MaxSizeBytes = size
	c.MaxItems = cfg.MaxItems
	c.SweepFraction = cfg.SweepFraction
	c.MinSweep = cfg.MinSweep
	return c.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxSizeBytes == 0 {
		c.MaxSizeBytes = d.MaxSizeBytes
	}
	if c.MaxItems <= 0 {
		c.MaxItems = d.MaxItems
	}
	if c.SweepFraction <= 0 || c.SweepFraction > 1 {
		c.SweepFraction = d.SweepFraction
	}
	if c.MinSweep <= 0 {
		c.MinSweep = d.MinSweep
	}
	if c.IndexPrefix <= 0 {
		c.IndexPrefix = d.IndexPrefix
	}
	if c.MaxTags <= 0 {
		c.MaxTags = d.MaxTags
	}
	return c
}
