package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Notifier types
const (
	NotifierPushover = "pushover"
	NotifierDiscord  = "discord"
)

// DefaultPageURL is the live blog watched when no page is configured
const DefaultPageURL = "https://www.independent.co.uk/extras/indybest/gadgets-tech/video-games-consoles/ps5-console-uk-restock-news-latest-b2012447.html"

// Config holds the application configuration
type Config struct {
	Page     PageConfig     `mapstructure:"page"`
	Store    StoreConfig    `mapstructure:"store"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Log      LogConfig      `mapstructure:"log"`
}

// PageConfig holds settings for the watched page
type PageConfig struct {
	URL       string        `mapstructure:"url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds the post store location
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// NotifierConfig holds notification settings
type NotifierConfig struct {
	Type       string         `mapstructure:"type"`
	ConfigPath string         `mapstructure:"config_path"`
	URLTitle   string         `mapstructure:"url_title"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	Pushover   PushoverConfig `mapstructure:"pushover"`
	Discord    DiscordConfig  `mapstructure:"discord"`
}

// PushoverConfig holds Pushover settings that override the credentials file
type PushoverConfig struct {
	APIToken string `mapstructure:"api_token"`
	UserKey  string `mapstructure:"user_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// DiscordConfig holds Discord webhook settings
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// JournalConfig holds the run journal location. An empty path disables it.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty path searches for config.yaml in . and ./config; a missing file
// there is not an error, but an explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// Environment variable bindings
	v.SetEnvPrefix("WATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("notifier.discord.webhook_url", "WATCHER_NOTIFIER_DISCORD_WEBHOOK_URL", "DISCORD_WEBHOOK_URL")
	_ = v.BindEnv("notifier.pushover.api_token", "WATCHER_NOTIFIER_PUSHOVER_API_TOKEN", "PUSHOVER_API_TOKEN")
	_ = v.BindEnv("notifier.pushover.user_key", "WATCHER_NOTIFIER_PUSHOVER_USER_KEY", "PUSHOVER_USER_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("page.url", DefaultPageURL)
	v.SetDefault("page.user_agent", "")
	v.SetDefault("page.timeout", "30s")
	v.SetDefault("store.path", "./data/post-storage.csv")
	v.SetDefault("notifier.type", NotifierPushover)
	v.SetDefault("notifier.config_path", "./pushover.conf")
	v.SetDefault("notifier.url_title", "Live Blog here")
	v.SetDefault("notifier.timeout", "15s")
	v.SetDefault("notifier.pushover.endpoint", "")
	v.SetDefault("journal.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the configuration for values a run cannot start without
func (c *Config) Validate() error {
	var errs []error

	if c.Page.URL == "" {
		errs = append(errs, errors.New("page.url is required"))
	}
	if c.Page.Timeout < 0 {
		errs = append(errs, errors.New("page.timeout must not be negative"))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Notifier.Timeout < 0 {
		errs = append(errs, errors.New("notifier.timeout must not be negative"))
	}

	switch c.Notifier.Type {
	case NotifierPushover:
	case NotifierDiscord:
		if c.Notifier.Discord.WebhookURL == "" {
			errs = append(errs, errors.New("notifier.discord.webhook_url is required for the discord notifier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown notifier.type %q", c.Notifier.Type))
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
