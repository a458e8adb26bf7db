// Package config loads and validates application configuration from
// environment variables and an optional config file.
package config

// Config holds all application configuration, grouped by concern.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Hub      HubConfig      `mapstructure:"hub" validate:"required"`
	Poller   PollerConfig   `mapstructure:"poller" validate:"required"`
	ImageJob ImageJobConfig `mapstructure:"image_job" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeoutSeconds bounds graceful shutdown, including the
	// poller drain.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"required,gt=0"`
}

// HubConfig contains event hub settings.
type HubConfig struct {
	// SubscriberBuffer is the per-subscriber event buffer; a subscriber
	// further behind than this starts losing events.
	SubscriberBuffer int `mapstructure:"subscriber_buffer" validate:"required,gt=0"`
}

// PollerConfig contains the poll loop settings.
type PollerConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds" validate:"required,gt=0"`
	MaxAttempts     int `mapstructure:"max_attempts" validate:"required,gt=0"`
	ProgressEvery   int `mapstructure:"progress_every" validate:"required,gt=0"`
}

// ImageJobConfig contains settings for the external job API client.
type ImageJobConfig struct {
	BaseURL               string `mapstructure:"base_url" validate:"required,url"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
}
