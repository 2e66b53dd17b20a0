package config

import (
	"github.com/opencatalog/metadata-service/internal/logger"
)

// AppConfig identifies the running service.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port"`
}

// PostgresConfig carries connection and pool tuning parameters.
// Durations are in seconds. Credentials are required and normally arrive via
// APP_POSTGRES_* environment variables rather than the YAML file.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"required"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

// CursorConfig selects the opaque cursor codec for paginated listings.
// Mode is "aes" (authenticated encryption, requires Secret) or "base64".
type CursorConfig struct {
	Mode   string `mapstructure:"mode" validate:"omitempty,oneof=aes base64"`
	Secret string `mapstructure:"secret" validate:"required_if=Mode aes"`
}

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	Cursor   CursorConfig        `mapstructure:"cursor"`
}
