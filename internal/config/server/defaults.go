package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",
		Offline:         false,

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
		Database: DatabaseServerConfig{
			Type:     "sqlite",
			LogLevel: "warn",
			SQLite: DatabaseSQLiteConfig{
				Path: "gocard.db",
			},
		},
		Cache: CacheServerConfig{
			MaxSize:       "100MiB",
			MaxItems:      1000,
			SweepFraction: 0.1,
			MinSweep:      50,
		},
		Remote: RemoteServerConfig{
			BaseURL: "http://localhost:49384/v1",
			Timeout: "30s",
		},
		Preload: PreloadServerConfig{
			Enabled:     true,
			Interval:    "15m",
			PageSize:    100,
			WaitTimeout: "5s",
		},
		Connectivity: ConnectivityServerConfig{
			ProbeInterval: "30s",
			ProbeTimeout:  "1500ms",
			MaxBackoff:    "2m",
		},
		HTTP: HTTPServerConfig{
			Address: "127.0.0.1:49385",
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)
	viper.SetDefault("offline", defaults.Offline)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("database.type", defaults.Database.Type)
	viper.SetDefault("database.log_level", defaults.Database.LogLevel)
	viper.SetDefault("database.sqlite.path", defaults.Database.SQLite.Path)
	viper.SetDefault("database.postgres.dsn", defaults.Database.Postgres.DSN)

	viper.SetDefault("cache.max_size", defaults.Cache.MaxSize)
	viper.SetDefault("cache.max_items", defaults.Cache.MaxItems)
	viper.SetDefault("cache.sweep_fraction", defaults.Cache.SweepFraction)
	viper.SetDefault("cache.min_sweep", defaults.Cache.MinSweep)

	viper.SetDefault("remote.base_url", defaults.Remote.BaseURL)
	viper.SetDefault("remote.timeout", defaults.Remote.Timeout)

	viper.SetDefault("preload.enabled", defaults.Preload.Enabled)
	viper.SetDefault("preload.interval", defaults.Preload.Interval)
	viper.SetDefault("preload.page_size", defaults.Preload.PageSize)
	viper.SetDefault("preload.wait_timeout", defaults.Preload.WaitTimeout)

	viper.SetDefault("connectivity.probe_interval", defaults.Connectivity.ProbeInterval)
	viper.SetDefault("connectivity.probe_timeout", defaults.Connectivity.ProbeTimeout)
	viper.SetDefault("connectivity.max_backoff", defaults.Connectivity.MaxBackoff)

	viper.SetDefault("http.address", defaults.HTTP.Address)
}
