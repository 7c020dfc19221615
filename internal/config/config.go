package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	defaultListen              = ":8465"
	defaultLibraryRoot         = "./library"
	defaultScanIntervalSeconds = 30
	defaultRateLimitPerSecond  = 20
	defaultRateLimitBurst      = 50
	defaultTitleDBRefresh      = 86400
)

type TitleDBConfig struct {
	Enabled                bool   `yaml:"enabled"`
	URL                    string `yaml:"url"`
	CacheFile              string `yaml:"cache_file"`
	RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds"`
}

type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

type Config struct {
	Listen              string          `yaml:"listen"`
	LibraryRoot         string          `yaml:"library_root"`
	Public              bool            `yaml:"public"`
	UsersFile           string          `yaml:"users_file"`
	ScanIntervalSeconds int             `yaml:"scan_interval_seconds"`
	RedisURL            string          `yaml:"redis_url"`
	LogLevel            string          `yaml:"log_level"`
	RateLimit           RateLimitConfig `yaml:"rate_limit"`
	TitleDB             TitleDBConfig   `yaml:"titledb"`
}

func (c *Config) SetDefaults() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LibraryRoot == "" {
		c.LibraryRoot = defaultLibraryRoot
	}
	if c.ScanIntervalSeconds < 1 {
		c.ScanIntervalSeconds = defaultScanIntervalSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}
	if c.RateLimit.PerSecond <= 0 {
		c.RateLimit.PerSecond = defaultRateLimitPerSecond
	}
	if c.RateLimit.Burst < 1 {
		c.RateLimit.Burst = defaultRateLimitBurst
	}
	if c.TitleDB.RefreshIntervalSeconds < 1 {
		c.TitleDB.RefreshIntervalSeconds = defaultTitleDBRefresh
	}
}

// Load reads the config file, applies env overrides, defaults and validation.
// A missing file is not an error, the defaults describe a runnable server.
func Load(fileName string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(fileName)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", fileName, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load for the startup path, where a bad config is fatal.
func MustLoad(fileName string) *Config {
	cfg, err := Load(fileName)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}

	if c.LibraryRoot == "" {
		return fmt.Errorf("library root must not be empty")
	}

	if !c.Public && c.UsersFile == "" {
		return fmt.Errorf("private catalog requires a users file, set users_file or GAMESHELF_PUBLIC=true")
	}

	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GAMESHELF_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("GAMESHELF_LIBRARY"); v != "" {
		c.LibraryRoot = v
	}
	if v := os.Getenv("GAMESHELF_USERS_FILE"); v != "" {
		c.UsersFile = v
	}
	if v := os.Getenv("GAMESHELF_REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("GAMESHELF_PUBLIC"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GAMESHELF_PUBLIC value %q: %w", v, err)
		}
		c.Public = b
	}

	return nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}

	return false, fmt.Errorf("not a boolean")
}
