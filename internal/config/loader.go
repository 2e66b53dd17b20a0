package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	// Secrets are expected from the environment; defaults register the keys
	// so AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "")
	v.SetDefault("cursor.secret", "")
	v.SetDefault("cursor.mode", "aes")

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// Logger settings are defaulted and validated later by logger.New; the
	// storage and cursor sections have no such pass, so check them here.
	val := validator.New()
	if err := val.Struct(&config.Postgres); err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}
	if err := val.Struct(&config.Cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor config: %w", err)
	}
	return &config, nil
}
