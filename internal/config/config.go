// Package config loads service configuration from the environment with
// viper, with an optional .env file for local development.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the service settings. All values come from environment
// variables; DATABASE_URL empty selects the in-memory store.
type Config struct {
	Addr          string `mapstructure:"ADDR"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	SeedDemoData  bool   `mapstructure:"SEED_DEMO_DATA"`
	BackfillBurst int    `mapstructure:"BACKFILL_BURST"`
}

// Load reads configuration from the environment, consulting an optional
// .env file in path.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SEED_DEMO_DATA", false)
	v.SetDefault("BACKFILL_BURST", 1)

	for _, key := range []string{"ADDR", "PORT", "DATABASE_URL", "LOG_FORMAT", "LOG_LEVEL", "SEED_DEMO_DATA", "BACKFILL_BURST"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	// PORT wins over ADDR for platform compatibility.
	if port := strings.TrimSpace(v.GetString("PORT")); port != "" {
		cfg.Addr = ":" + port
	}
	return cfg, nil
}
