package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Snapshot.FilePath != "./data/sent_listings.json" {
		t.Errorf("expected default snapshot path, got %s", cfg.Snapshot.FilePath)
	}
	if cfg.Scrape.Timeout != 20*time.Second {
		t.Errorf("expected 20s scrape timeout, got %s", cfg.Scrape.Timeout)
	}
	if !strings.Contains(cfg.Scrape.UserAgent, "Mozilla/5.0") {
		t.Errorf("expected browser-like user agent, got %s", cfg.Scrape.UserAgent)
	}
	if !cfg.Scrape.Rightmove.Enabled || !cfg.Scrape.Zoopla.Enabled || !cfg.Scrape.OnTheMarket.Enabled {
		t.Error("expected all sources enabled by default")
	}
	if cfg.Notifications.Mode != NotifyModeDiscord {
		t.Errorf("expected discord mode, got %s", cfg.Notifications.Mode)
	}
	if cfg.Notifications.Discord.WebhookURL != "https://discord.com/api/webhooks/1/abc" {
		t.Errorf("expected webhook url from env, got %s", cfg.Notifications.Discord.WebhookURL)
	}
	if cfg.Archive.Enabled {
		t.Error("expected archive disabled by default")
	}
	if cfg.Daemon.PollInterval != 30*time.Minute {
		t.Errorf("expected 30m poll interval, got %s", cfg.Daemon.PollInterval)
	}
	if cfg.Daemon.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Daemon.Port)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
snapshot:
  file_path: /var/lib/housefinder/seen.json
scrape:
  rightmove:
    enabled: false
  onthemarket:
    enabled: false
notifications:
  mode: memory
archive:
  enabled: true
  path: /var/lib/housefinder/listings.db
daemon:
  poll_interval: 5m
  port: 9090
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Snapshot.FilePath != "/var/lib/housefinder/seen.json" {
		t.Errorf("expected snapshot path from file, got %s", cfg.Snapshot.FilePath)
	}
	if cfg.Scrape.Rightmove.Enabled {
		t.Error("expected rightmove disabled")
	}
	if !cfg.Scrape.Zoopla.Enabled {
		t.Error("expected zoopla to keep its default")
	}
	if cfg.Notifications.Mode != NotifyModeMemory {
		t.Errorf("expected memory mode, got %s", cfg.Notifications.Mode)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Path != "/var/lib/housefinder/listings.db" {
		t.Errorf("expected archive settings from file, got %+v", cfg.Archive)
	}
	if cfg.Daemon.PollInterval != 5*time.Minute {
		t.Errorf("expected 5m poll interval, got %s", cfg.Daemon.PollInterval)
	}
	if cfg.Daemon.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Daemon.Port)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HOUSEFINDER_NOTIFICATIONS_MODE", NotifyModeMemory)
	t.Setenv("HOUSEFINDER_SNAPSHOT_FILE_PATH", "/tmp/seen.json")
	t.Setenv("HOUSEFINDER_DAEMON_POLL_INTERVAL", "15m")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Notifications.Mode != NotifyModeMemory {
		t.Errorf("expected memory mode from env, got %s", cfg.Notifications.Mode)
	}
	if cfg.Snapshot.FilePath != "/tmp/seen.json" {
		t.Errorf("expected snapshot path from env, got %s", cfg.Snapshot.FilePath)
	}
	if cfg.Daemon.PollInterval != 15*time.Minute {
		t.Errorf("expected 15m poll interval from env, got %s", cfg.Daemon.PollInterval)
	}
}

func TestLoadConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("snapshot: ["), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := LoadConfig(dir); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func validConfig() *Config {
	return &Config{
		Snapshot: SnapshotConfig{FilePath: "/tmp/seen.json"},
		Scrape: ScrapeConfig{
			Timeout:   30 * time.Second,
			UserAgent: "test-agent",
			Rightmove: SourceConfig{Enabled: true, URL: "https://example.com/rightmove"},
		},
		Notifications: NotificationsConfig{
			Mode:    NotifyModeMemory,
			Discord: DiscordConfig{Timeout: 10 * time.Second},
		},
		Daemon: DaemonConfig{
			PollInterval:    30 * time.Minute,
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  5 * time.Second,
			GinMode:         "release",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "missing snapshot path",
			mutate:    func(c *Config) { c.Snapshot.FilePath = "" },
			expectErr: true,
		},
		{
			name:      "non-positive scrape timeout",
			mutate:    func(c *Config) { c.Scrape.Timeout = 0 },
			expectErr: true,
		},
		{
			name:      "no sources enabled",
			mutate:    func(c *Config) { c.Scrape.Rightmove.Enabled = false },
			expectErr: true,
		},
		{
			name:      "enabled source without url",
			mutate:    func(c *Config) { c.Scrape.Rightmove.URL = "" },
			expectErr: true,
		},
		{
			name: "discord mode without webhook",
			mutate: func(c *Config) {
				c.Notifications.Mode = NotifyModeDiscord
				c.Notifications.Discord.WebhookURL = ""
			},
			expectErr: true,
		},
		{
			name: "discord mode with webhook",
			mutate: func(c *Config) {
				c.Notifications.Mode = NotifyModeDiscord
				c.Notifications.Discord.WebhookURL = "https://discord.com/api/webhooks/1/abc"
			},
		},
		{
			name:      "unknown notification mode",
			mutate:    func(c *Config) { c.Notifications.Mode = "carrier-pigeon" },
			expectErr: true,
		},
		{
			name: "archive enabled without path",
			mutate: func(c *Config) {
				c.Archive.Enabled = true
				c.Archive.Path = ""
			},
			expectErr: true,
		},
		{
			name:      "poll interval too short",
			mutate:    func(c *Config) { c.Daemon.PollInterval = 10 * time.Second },
			expectErr: true,
		},
		{
			name:      "invalid port",
			mutate:    func(c *Config) { c.Daemon.Port = 0 },
			expectErr: true,
		},
		{
			name:      "non-positive shutdown timeout",
			mutate:    func(c *Config) { c.Daemon.ShutdownTimeout = 0 },
			expectErr: true,
		},
		{
			name:      "invalid gin mode",
			mutate:    func(c *Config) { c.Daemon.GinMode = "production" },
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.expectErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestDaemonAddr(t *testing.T) {
	cfg := DaemonConfig{Host: "127.0.0.1", Port: 9090}
	if addr := cfg.Addr(); addr != "127.0.0.1:9090" {
		t.Errorf("expected 127.0.0.1:9090, got %s", addr)
	}
}
