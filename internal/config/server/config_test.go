package server

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := GetServerDefault()
	require.NoError(t, cfg.Validate())

	size, err := cfg.Cache.MaxSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(100*1024*1024), size)
}

func TestLoadServerConfigUsesViper(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("cache.max_items", 25)
	viper.Set("remote.base_url", "https://cards.example.org/v1")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Cache.MaxItems)
	assert.Equal(t, "https://cards.example.org/v1", cfg.Remote.BaseURL)
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BaseServerConfig)
	}{
		{"max size", func(c *BaseServerConfig) { c.Cache.MaxSize = "lots" }},
		{"max items", func(c *BaseServerConfig) { c.Cache.MaxItems = 0 }},
		{"sweep fraction", func(c *BaseServerConfig) { c.Cache.SweepFraction = 1.5 }},
		{"database type", func(c *BaseServerConfig) { c.Database.Type = "mysql" }},
		{"postgres dsn", func(c *BaseServerConfig) { c.Database.Type = "postgres" }},
		{"remote url", func(c *BaseServerConfig) { c.Remote.BaseURL = "not a url" }},
		{"duration", func(c *BaseServerConfig) { c.Preload.Interval = "soon" }},
		{"log rotation", func(c *BaseServerConfig) { c.Log.Rotation.MaxBackups = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetServerDefault()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, Duration("3s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("bogus", time.Minute))
}

func TestLogForCommand(t *testing.T) {
	cfg := GetServerDefault().Log
	cfg.NoTerminal = true

	quiet := cfg.ForCommand("warn")
	assert.Equal(t, "warn", quiet.Level)
	assert.False(t, quiet.NoTerminal)
	assert.True(t, quiet.Colored())

	assert.Equal(t, cfg.Level, cfg.ForCommand("").Level)

	cfg.File = "gocard.log"
	assert.False(t, cfg.ForCommand("").Colored())
}
