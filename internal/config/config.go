package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // broadcast timezone must resolve on minimal images

	"namozvaqti/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Backup    BackupConfig    `yaml:"backup"`
	Logging   LoggingConfig   `yaml:"logging"`
	API       APIConfig       `yaml:"api"`
	Prayer    PrayerConfig    `yaml:"prayer"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Bot       BotConfig       `yaml:"bot"`
}

type BotConfig struct {
	RateLimitMessages int `yaml:"rate_limit_messages"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
}

// BroadcastConfig controls the daily prayer-times broadcast.
type BroadcastConfig struct {
	Disabled      bool    `yaml:"disabled"`
	Time          string  `yaml:"time"`     // HH:MM
	Timezone      string  `yaml:"timezone"` // IANA name
	WindowSeconds int     `yaml:"window_seconds"`
	Workers       int     `yaml:"workers"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

type PrayerConfig struct {
	BaseURL         string `yaml:"base_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; variables may come from the environment directly
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if _, _, err := ParseClock(c.Broadcast.Time); err != nil {
		return fmt.Errorf("broadcast.time: %w", err)
	}

	if _, err := time.LoadLocation(c.Broadcast.Timezone); err != nil {
		return fmt.Errorf("broadcast.timezone: %w", err)
	}

	if c.API.Enabled {
		if len(c.API.Auth.APIKeys) == 0 {
			return errors.New("api.auth.api_keys must not be empty when api is enabled")
		}
		for i, k := range c.API.Auth.APIKeys {
			if k.Key == "" {
				return fmt.Errorf("api.auth.api_keys[%d]: key is empty", i)
			}
		}
	}

	return nil
}

// Location returns the broadcast timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Broadcast.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	var extra string
	n, _ := fmt.Sscanf(s, "%d:%d%s", &hour, &minute, &extra)
	if n != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return hour, minute, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "namozvaqti-bot"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}

	if c.Broadcast.Time == "" {
		c.Broadcast.Time = models.DefaultBroadcastTime
	}
	if c.Broadcast.Timezone == "" {
		c.Broadcast.Timezone = models.DefaultTimezone
	}
	if c.Broadcast.WindowSeconds <= 0 {
		c.Broadcast.WindowSeconds = models.DefaultBroadcastWindow
	}
	if c.Broadcast.Workers <= 0 {
		c.Broadcast.Workers = models.DefaultBroadcastWorkers
	}
	if c.Broadcast.RatePerSecond <= 0 {
		c.Broadcast.RatePerSecond = models.DefaultBroadcastRate
	}

	if c.Prayer.BaseURL == "" {
		c.Prayer.BaseURL = models.DefaultPrayerAPIURL
	}
	if c.Prayer.TimeoutSeconds <= 0 {
		c.Prayer.TimeoutSeconds = models.DefaultPrayerTimeout
	}

	if c.Backup.Interval == "" {
		c.Backup.Interval = "24h"
	}

	// Bot defaults
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
}
