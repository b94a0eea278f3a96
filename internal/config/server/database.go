package server

// DatabaseServerConfig holds the local store configuration
type DatabaseServerConfig struct {
	Type     string                 `mapstructure:"type"      yaml:"type"      validate:"oneof=sqlite postgres"`
	LogLevel string                 `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=silent error warn info"`
	SQLite   DatabaseSQLiteConfig   `mapstructure:"sqlite"    yaml:"sqlite"`
	Postgres DatabasePostgresConfig `mapstructure:"postgres"  yaml:"postgres"`
}

// DatabaseSQLiteConfig holds SQLite-specific configuration
type DatabaseSQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DatabasePostgresConfig holds PostgreSQL-specific configuration
type DatabasePostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}
