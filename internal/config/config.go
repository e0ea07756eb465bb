package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Fetcher backends.
const (
	FetcherYtDLP   = "ytdlp"
	FetcherYouTube = "youtube"
)

// WebhookPrefix is the route prefix platform updates are posted under,
// followed by the bot token.
const WebhookPrefix = "/webhook/"

// DotEnvFile is loaded into the environment before processing, when present.
const DotEnvFile = ".env"

// Config holds all application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Worker   WorkerConfig   `yaml:"worker"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Download DownloadConfig `yaml:"download"`
	Relay    RelayConfig    `yaml:"relay"`
}

// TelegramConfig holds messaging platform configuration.
type TelegramConfig struct {
	Token          string        `yaml:"token" envconfig:"API_TOKEN"`
	WebhookURL     string        `yaml:"webhook_url" envconfig:"WEBHOOK_URL"`
	APIEndpoint    string        `yaml:"api_endpoint" envconfig:"TELEGRAM_API_ENDPOINT" default:"https://api.telegram.org/bot%s/%s"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"TELEGRAM_REQUEST_TIMEOUT" default:"30s"`
	UploadTimeout  time.Duration `yaml:"upload_timeout" envconfig:"TELEGRAM_UPLOAD_TIMEOUT" default:"10m"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" envconfig:"PORT" default:"8000"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
}

// StorageConfig holds local filesystem configuration.
type StorageConfig struct {
	DownloadDir string `yaml:"download_dir" envconfig:"DOWNLOAD_DIR" default:"downloads"`
}

// WorkerConfig holds concurrency configuration.
// A zero FetchTimeout leaves fetches unbounded.
type WorkerConfig struct {
	MaxConcurrent   int           `yaml:"max_concurrent" envconfig:"MAX_CONCURRENT" default:"2"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" default:"0s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"25s"`
}

// FetcherConfig holds media retrieval configuration.
type FetcherConfig struct {
	Backend     string `yaml:"backend" envconfig:"FETCHER_BACKEND" default:"ytdlp"`
	BinaryPath  string `yaml:"binary_path" envconfig:"YTDLP_PATH" default:"yt-dlp"`
	Format      string `yaml:"format" envconfig:"YTDLP_FORMAT" default:"bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]"`
	MergeFormat string `yaml:"merge_format" envconfig:"YTDLP_MERGE_FORMAT" default:"mp4"`
}

// DownloadConfig holds auxiliary asset download configuration.
type DownloadConfig struct {
	Timeout   time.Duration `yaml:"timeout" envconfig:"THUMBNAIL_TIMEOUT" default:"15s"`
	UserAgent string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"`
}

// RelayConfig holds user-facing pipeline behavior.
type RelayConfig struct {
	GuidanceText        string `yaml:"guidance_text" envconfig:"RELAY_GUIDANCE_TEXT" default:"Please send a YouTube Shorts link"`
	FailureText         string `yaml:"failure_text" envconfig:"RELAY_FAILURE_TEXT" default:"Download failed"`
	NotifyUploadFailure bool   `yaml:"notify_upload_failure" envconfig:"RELAY_NOTIFY_UPLOAD_FAILURE" default:"false"`
	ProbeEnabled        bool   `yaml:"probe_enabled" envconfig:"FFPROBE_ENABLED" default:"true"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. A .env file in the working
// directory, if present, seeds the environment without replacing set variables.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("API_TOKEN is required")
	}
	if c.Storage.DownloadDir == "" {
		return fmt.Errorf("DOWNLOAD_DIR is required")
	}
	if c.Worker.MaxConcurrent < 1 {
		return fmt.Errorf("MAX_CONCURRENT must be at least 1, got %d", c.Worker.MaxConcurrent)
	}
	if c.Worker.FetchTimeout < 0 {
		return fmt.Errorf("FETCH_TIMEOUT must not be negative")
	}
	switch c.Fetcher.Backend {
	case FetcherYtDLP, FetcherYouTube:
	default:
		return fmt.Errorf("unknown FETCHER_BACKEND %q", c.Fetcher.Backend)
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *TelegramConfig) webhookPath() string {
	return WebhookPrefix + c.Token
}

// WebhookEndpoint returns the public webhook URL, or "" when no base URL is configured.
func (c *TelegramConfig) WebhookEndpoint() string {
	if c.WebhookURL == "" {
		return ""
	}
	return strings.TrimRight(c.WebhookURL, "/") + c.webhookPath()
}
