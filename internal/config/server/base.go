package server

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required"`
	Offline         bool   `mapstructure:"offline"          yaml:"offline"`

	Log          LogServerConfig          `mapstructure:"log"          yaml:"log"`
	Database     DatabaseServerConfig     `mapstructure:"database"     yaml:"database"`
	Cache        CacheServerConfig        `mapstructure:"cache"        yaml:"cache"`
	Remote       RemoteServerConfig       `mapstructure:"remote"       yaml:"remote"`
	Preload      PreloadServerConfig      `mapstructure:"preload"      yaml:"preload"`
	Connectivity ConnectivityServerConfig `mapstructure:"connectivity" yaml:"connectivity"`
	HTTP         HTTPServerConfig         `mapstructure:"http"         yaml:"http"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags and the values that need parsing.
func (cfg *BaseServerConfig) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Database.Type == "sqlite" && cfg.Database.SQLite.Path == "" {
		return fmt.Errorf("invalid configuration: database.sqlite.path is required")
	}
	if cfg.Database.Type == "postgres" && cfg.Database.Postgres.DSN == "" {
		return fmt.Errorf("invalid configuration: database.postgres.dsn is required")
	}

	if _, err := cfg.Cache.MaxSizeBytes(); err != nil {
		return fmt.Errorf("invalid configuration: cache.max_size: %w", err)
	}

	durations := map[string]string{
		"shutdown_timeout":            cfg.ShutdownTimeout,
		"remote.timeout":              cfg.Remote.Timeout,
		"preload.interval":            cfg.Preload.Interval,
		"preload.wait_timeout":        cfg.Preload.WaitTimeout,
		"connectivity.probe_interval": cfg.Connectivity.ProbeInterval,
		"connectivity.probe_timeout":  cfg.Connectivity.ProbeTimeout,
		"connectivity.max_backoff":    cfg.Connectivity.MaxBackoff,
	}
	for key, value := range durations {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s: %w", key, err)
		}
	}

	return nil
}
