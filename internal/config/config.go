package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockAlert/internal/logging"
	"StockAlert/internal/model"
)

const (
	HomeEnv         = "STOCKALERT_HOME"
	DefaultDirName  = ".stockalert"
	FileName        = "config.yaml"
	CredentialsFile = ".my_credential.env"

	DefaultInterval        = "5s"
	DefaultCooldownSeconds = 300
)

// Credentials are provider API keys. They never live in config.yaml.
type Credentials struct {
	AlphaVantageKey string
	FinnhubKey      string
}

// Config holds all application configuration.
type Config struct {
	AppDir string `yaml:"-"`

	Provider        string `yaml:"provider"`
	Interval        string `yaml:"interval"`
	Schedule        string `yaml:"schedule"`
	DefaultCooldown int    `yaml:"default_cooldown_seconds"`

	Cache model.CacheConfig `yaml:"cache"`

	Fetch struct {
		Timeout     string `yaml:"timeout"`
		Concurrency int    `yaml:"concurrency"`
		Seed        uint64 `yaml:"seed"`
	} `yaml:"fetch"`
	RateLimits struct {
		AlphaVantagePerMinute int `yaml:"alphavantage_per_minute"`
		FinnhubPerMinute      int `yaml:"finnhub_per_minute"`
	} `yaml:"rate_limits"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string         `yaml:"proxy"`
	Log   logging.Config `yaml:"log"`

	Credentials Credentials `yaml:"-"`
}

// AppDir returns $STOCKALERT_HOME, or ~/.stockalert.
func AppDir() string {
	if v := strings.TrimSpace(os.Getenv(HomeEnv)); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// Default returns the configuration used when no file exists.
func Default(appDir string) *Config {
	cfg := &Config{
		AppDir:          appDir,
		Provider:        "fake",
		Interval:        DefaultInterval,
		DefaultCooldown: DefaultCooldownSeconds,
		Cache: model.CacheConfig{
			Directory:        filepath.Join(appDir, "cache"),
			FileName:         "cache_data.json",
			MaxFiles:         5,
			MaxFileSizeBytes: 1 << 20,
		},
		Log: logging.DefaultConfig(appDir),
	}
	cfg.Fetch.Timeout = "10s"
	cfg.Fetch.Concurrency = 4
	cfg.RateLimits.AlphaVantagePerMinute = 5
	cfg.RateLimits.FinnhubPerMinute = 60
	return cfg
}

// Load reads config.yaml from appDir over the defaults, then applies
// environment variable overrides and loads provider credentials.
func Load(appDir string) (*Config, error) {
	cfg := Default(appDir)

	path := filepath.Join(appDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("STOCKALERT_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("STOCKALERT_INTERVAL"); v != "" {
		cfg.Interval = v
	}
	if v := os.Getenv("STOCKALERT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Relative cache and db paths are anchored at the app dir.
	if cfg.Cache.Directory != "" && !filepath.IsAbs(cfg.Cache.Directory) {
		cfg.Cache.Directory = filepath.Join(appDir, cfg.Cache.Directory)
	}
	if p := cfg.Database.SQLitePath; p != "" && !filepath.IsAbs(p) {
		cfg.Database.SQLitePath = filepath.Join(appDir, p)
	}

	cfg.Credentials = LoadCredentials(CredentialsFile, filepath.Join(appDir, CredentialsFile))
	return cfg, nil
}

// LoadCredentials reads API keys from the first dotenv files that define
// them. Process environment variables take precedence.
func LoadCredentials(paths ...string) Credentials {
	values := map[string]string{}
	for _, p := range paths {
		env, err := godotenv.Read(p)
		if err != nil {
			continue
		}
		for k, v := range env {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return values[key]
	}
	return Credentials{
		AlphaVantageKey: lookup("ALPHAVANTAGE_API_TOKEN"),
		FinnhubKey:      lookup("FINNHUB_API_TOKEN"),
	}
}

// ParseInterval accepts a Go duration ("30s", "1m") or a bare number of
// seconds ("5", "0.5"). Results below one second are raised to one second.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("interval is empty")
	}
	var d time.Duration
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %q: %w", s, err)
		}
	}
	if d < 0 {
		return 0, fmt.Errorf("interval %q is negative", s)
	}
	if d < time.Second {
		d = time.Second
	}
	return d, nil
}

// IntervalDuration is the parsed Interval.
func (c *Config) IntervalDuration() (time.Duration, error) {
	return ParseInterval(c.Interval)
}

// FetchTimeout is the parsed per-symbol fetch timeout, 10s when unset.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Fetch.Timeout))
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// TelegramEnabled reports whether both Telegram settings are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all settings are usable.
func (c *Config) Validate() error {
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if _, err := c.IntervalDuration(); err != nil {
		return err
	}
	if c.DefaultCooldown < 0 {
		return fmt.Errorf("default_cooldown_seconds must be >= 0")
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("fetch.concurrency must be >= 0")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
