package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultMaxFiles    = 10
	defaultMaxFileSize = 10 * 1024 * 1024
)

// Load reads configuration from ./configs/<APP_ENV>.yaml plus environment
// variables, validates it, and returns the resulting Config together with
// the viper instance for hot-reload subscription.
func Load() (*Config, *viper.Viper, error) {
	// Missing env files are fine; they only exist in local setups.
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	if err := Validate(&cfg); err != nil {
		return nil, nil, err
	}

	return &cfg, v, nil
}

// Validate checks a Config against its declared constraints.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	return nil
}

// Watch re-reads and re-validates the config file on change, invoking onChange
// with each valid new snapshot. Invalid snapshots are logged and skipped so a
// bad edit cannot take down a running bot.
func Watch(v *viper.Viper, log *slog.Logger, onChange func(*Config)) {
	v.OnConfigChange(func(event fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			log.Error("config reload failed to unmarshal", "file", event.Name, "error", err)
			return
		}

		if err := Validate(&cfg); err != nil {
			log.Error("config reload rejected", "file", event.Name, "error", err)
			return
		}

		log.Info("config reloaded", "file", event.Name)
		onChange(&cfg)
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.listen", ":8443")
	v.SetDefault("bot.request_timeout", "30s")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("storage.backend", "disk")
	v.SetDefault("storage.max_files", defaultMaxFiles)
	v.SetDefault("storage.max_file_size", defaultMaxFileSize)
	v.SetDefault("rate_limit.per_minute", 20)
}
