// Package config provides configuration loading, validation and hot-reload
// notification for the bot.
package config

import "time"

// Config holds the full runtime configuration.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage" validate:"required"`
	S3        S3Config        `mapstructure:"s3"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// LogConfig selects level and the optional rotated log file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SentryConfig enables error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// BotConfig configures the hosting bot's own Telegram connection.
type BotConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	// Mode is "webhook" or "polling". Polling exists for local development.
	Mode string `mapstructure:"mode" validate:"oneof=webhook polling"`
	// WebhookURL is the public HTTPS endpoint Telegram delivers updates to
	// in webhook mode.
	WebhookURL string `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	// Listen is the local address the webhook listener binds in webhook mode.
	Listen string `mapstructure:"listen"`
	// APIURL overrides the Bot API host, for tests and self-hosted gateways.
	APIURL string `mapstructure:"api_url"`
	// RequestTimeout bounds every outbound Bot API call.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ServerConfig configures the admin HTTP server (health and metrics).
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig mirrors the redis package's connection settings.
type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// StorageConfig configures the per-user file store and its acceptance policy.
type StorageConfig struct {
	// Backend is "disk" or "s3".
	Backend string `mapstructure:"backend" validate:"oneof=disk s3"`
	BaseDir string `mapstructure:"base_dir" validate:"required_if=Backend disk"`
	// TempDir receives the short-lived documents used to deliver oversized
	// API responses.
	TempDir string `mapstructure:"temp_dir"`
	// PublicBaseURL is the externally reachable root under which stored
	// scripts are served.
	PublicBaseURL string `mapstructure:"public_base_url" validate:"required,url"`
	MaxFiles      int    `mapstructure:"max_files" validate:"gt=0"`
	MaxFileSize   int64  `mapstructure:"max_file_size" validate:"gt=0"`
	// AllowedExtensions restricts uploads when non-empty.
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	// ScanUploads gates file content against the disallowed-construct list.
	ScanUploads bool `mapstructure:"scan_uploads"`
}

// S3Config configures the object-storage backend.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// RateLimitConfig configures per-user update throttling.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// PerMinute caps how many updates a single user may send per minute.
	PerMinute int `mapstructure:"per_minute" validate:"required_if=Enabled true,omitempty,gt=0"`
	// Whitelist lists user IDs exempt from throttling.
	Whitelist []int64 `mapstructure:"whitelist"`
}
