package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/GetFlawed/HouseFinder/internal/logger"
)

// Notification modes accepted by notifications.mode.
const (
	NotifyModeDiscord = "discord"
	NotifyModeMemory  = "memory"
)

// Default search URLs watch Guildford rentals, matching the searches this
// project was originally deployed with. Override them in config.yaml or via
// HOUSEFINDER_* env vars to watch another area.
const (
	defaultRightmoveURL   = "https://www.rightmove.co.uk/property-to-rent/find.html?searchLocation=Guildford+Station&useLocationIdentifier=true&locationIdentifier=STATION%5E4037&radius=0.0&minPrice=100&maxPrice=1500&minBedrooms=1&maxBedrooms=2&_includeLetAgreed=on&maxBathrooms=2&index=0&sortType=6&channel=RENT&transactionType=LETTING&displayLocationIdentifier=undefined&minBathrooms=1&letType=longTerm&mustHave=parking&dontShow=houseShare%2Cretirement%2Cstudent&maxDaysSinceAdded=1"
	defaultZooplaURL      = "https://www.zoopla.co.uk/to-rent/property/schools/secondary/guildford-centre/?added=24_hours&baths_max=2&baths_min=1&beds_max=2&beds_min=1&feature=has_parking_garage&is_retirement_home=false&is_shared_accommodation=false&is_student_accommodation=false&price_frequency=per_month&price_max=1500&q=Guildford%20Centre%2C%20Surrey%2C%20GU1&radius=1&search_source=to-rent"
	defaultOnTheMarketURL = "https://www.onthemarket.com/to-rent/property/central-guildford/?let-length=long-term&max-bedrooms=2&min-bedrooms=1&max-price=1500&radius=1.0&recently-added=24-hours&shared=false&student=false"
)

// Portals block requests without a browser-like User-Agent.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

type Config struct {
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"`
	Scrape        ScrapeConfig        `mapstructure:"scrape"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Archive       ArchiveConfig       `mapstructure:"archive"`
	Daemon        DaemonConfig        `mapstructure:"daemon"`
	Log           LogConfig           `mapstructure:"log"`
}

type SnapshotConfig struct {
	FilePath string `mapstructure:"file_path"`
}

type ScrapeConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	Rightmove   SourceConfig  `mapstructure:"rightmove"`
	Zoopla      SourceConfig  `mapstructure:"zoopla"`
	OnTheMarket SourceConfig  `mapstructure:"onthemarket"`
}

type SourceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type NotificationsConfig struct {
	Mode    string        `mapstructure:"mode"`
	Discord DiscordConfig `mapstructure:"discord"`
}

type DiscordConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type DaemonConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	GinMode         string        `mapstructure:"gin_mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads config.yaml (optional), layering HOUSEFINDER_* env vars and
// a local .env file on top of the defaults.
func LoadConfig(confPath string) (*Config, error) {
	// A .env file is a convenience for local runs; deployments set env vars
	// directly, so a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if confPath != "" {
		v.AddConfigPath(confPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvPrefix("HOUSEFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The webhook secret keeps the plain name existing deployments already use.
	_ = v.BindEnv("notifications.discord.webhook_url", "DISCORD_WEBHOOK_URL")
	_ = v.BindEnv("log.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Debug("no config file found, using defaults and env vars")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("snapshot.file_path", "./data/sent_listings.json")

	v.SetDefault("scrape.timeout", 20*time.Second)
	v.SetDefault("scrape.user_agent", defaultUserAgent)
	v.SetDefault("scrape.rightmove.enabled", true)
	v.SetDefault("scrape.rightmove.url", defaultRightmoveURL)
	v.SetDefault("scrape.zoopla.enabled", true)
	v.SetDefault("scrape.zoopla.url", defaultZooplaURL)
	v.SetDefault("scrape.onthemarket.enabled", true)
	v.SetDefault("scrape.onthemarket.url", defaultOnTheMarketURL)

	v.SetDefault("notifications.mode", NotifyModeDiscord)
	v.SetDefault("notifications.discord.timeout", 10*time.Second)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.path", "./data/listings.db")

	v.SetDefault("daemon.poll_interval", 30*time.Minute)
	v.SetDefault("daemon.host", "0.0.0.0")
	v.SetDefault("daemon.port", 8080)
	v.SetDefault("daemon.read_timeout", 10*time.Second)
	v.SetDefault("daemon.write_timeout", 10*time.Second)
	v.SetDefault("daemon.idle_timeout", 120*time.Second)
	v.SetDefault("daemon.shutdown_timeout", 5*time.Second)
	v.SetDefault("daemon.request_timeout", 5*time.Second)
	v.SetDefault("daemon.gin_mode", "release")

	v.SetDefault("log.level", "info")
}

func (c *Config) validate() error {
	if c.Snapshot.FilePath == "" {
		return errors.New("snapshot file path is required")
	}

	if c.Scrape.Timeout <= 0 {
		return errors.New("scrape timeout must be positive")
	}
	if c.Scrape.UserAgent == "" {
		return errors.New("scrape user agent is required")
	}
	sources := map[string]SourceConfig{
		"rightmove":   c.Scrape.Rightmove,
		"zoopla":      c.Scrape.Zoopla,
		"onthemarket": c.Scrape.OnTheMarket,
	}
	enabled := 0
	for name, src := range sources {
		if !src.Enabled {
			continue
		}
		enabled++
		if src.URL == "" {
			return fmt.Errorf("%s source is enabled but has no url", name)
		}
	}
	if enabled == 0 {
		return errors.New("at least one scrape source must be enabled")
	}

	switch c.Notifications.Mode {
	case NotifyModeDiscord:
		if c.Notifications.Discord.WebhookURL == "" {
			return errors.New("discord notifications require a webhook url")
		}
	case NotifyModeMemory:
	default:
		return fmt.Errorf("unknown notification mode: %s", c.Notifications.Mode)
	}
	if c.Notifications.Discord.Timeout <= 0 {
		return errors.New("discord timeout must be positive")
	}

	if c.Archive.Enabled && c.Archive.Path == "" {
		return errors.New("archive is enabled but has no path")
	}

	if c.Daemon.PollInterval < time.Minute {
		return errors.New("daemon poll interval must be at least one minute")
	}
	if c.Daemon.Port < 1 || c.Daemon.Port > 65535 {
		return fmt.Errorf("invalid daemon port: %d", c.Daemon.Port)
	}
	if c.Daemon.ReadTimeout <= 0 || c.Daemon.WriteTimeout <= 0 || c.Daemon.IdleTimeout <= 0 {
		return errors.New("daemon server timeouts must be positive")
	}
	if c.Daemon.ShutdownTimeout <= 0 {
		return errors.New("daemon shutdown timeout must be positive")
	}
	if c.Daemon.RequestTimeout <= 0 {
		return errors.New("daemon request timeout must be positive")
	}
	switch c.Daemon.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin mode: %s (supported: debug, release, test)", c.Daemon.GinMode)
	}

	return nil
}

// Addr returns the host:port the daemon API listens on.
func (c *DaemonConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
