package config

import (
	"os"
	"path/filepath"
	"testing"

	"namozvaqti/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_BOT_TOKEN", "env_token")

	yamlContent := `
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
database:
  path: "test.db"
broadcast:
  time: "05:30"
  workers: 2
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env_token", cfg.Telegram.BotToken)
	assert.Equal(t, "05:30", cfg.Broadcast.Time)
	assert.Equal(t, 2, cfg.Broadcast.Workers)
	assert.Equal(t, models.DefaultTimezone, cfg.Broadcast.Timezone)
	assert.False(t, cfg.Broadcast.Disabled)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{
			Telegram: TelegramConfig{BotToken: "token"},
			Database: DatabaseConfig{Path: "path"},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing token", mutate: func(c *Config) { c.Telegram.BotToken = "" }, wantErr: true},
		{name: "placeholder token", mutate: func(c *Config) { c.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE" }, wantErr: true},
		{name: "missing db path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "bad broadcast time", mutate: func(c *Config) { c.Broadcast.Time = "25:00" }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Broadcast.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "api without keys", mutate: func(c *Config) { c.API.Enabled = true }, wantErr: true},
		{
			name: "api with blank key",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Auth.APIKeys = []APIClientKey{{Key: "", Name: "ops"}}
			},
			wantErr: true,
		},
		{
			name: "api with keys",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Auth.APIKeys = []APIClientKey{{Key: "k", Name: "ops"}}
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, "20:00", cfg.Broadcast.Time)
	assert.Equal(t, "Asia/Tashkent", cfg.Broadcast.Timezone)
	assert.Equal(t, models.DefaultBroadcastWindow, cfg.Broadcast.WindowSeconds)
	assert.Equal(t, models.DefaultBroadcastWorkers, cfg.Broadcast.Workers)
	assert.Equal(t, models.DefaultPrayerAPIURL, cfg.Prayer.BaseURL)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, models.RateLimitMessages, cfg.Bot.RateLimitMessages)
	assert.Equal(t, "24h", cfg.Backup.Interval)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{"20:00", 20, 0, false},
		{"05:30", 5, 30, false},
		{"0:0", 0, 0, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"1200", 0, 0, true},
		{"20:00pm", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Broadcast: BroadcastConfig{Timezone: "Asia/Tashkent"}}
	assert.Equal(t, "Asia/Tashkent", cfg.Location().String())

	cfg.Broadcast.Timezone = "bogus/zone"
	assert.Equal(t, "UTC", cfg.Location().String())
}
