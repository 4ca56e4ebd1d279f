// Package config loads engine configuration from a YAML file and the
// environment. Every key has a default, so an empty environment yields a
// runnable configuration. Environment variables use the FLOWDEX_ prefix
// with underscores for nesting (FLOWDEX_SERVER_PORT, FLOWDEX_DATABASE_PATH).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the engine.
type Config struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Workflows struct {
		Root  string `mapstructure:"root"`
		Watch bool   `mapstructure:"watch"`
		// Filesystem events within this window collapse into one reindex.
		Debounce time.Duration `mapstructure:"debounce"`
	} `mapstructure:"workflows"`
	Indexer struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"indexer"`
	Search struct {
		CacheSize int           `mapstructure:"cache_size"`
		CacheTTL  time.Duration `mapstructure:"cache_ttl"`
		Timeout   time.Duration `mapstructure:"timeout"`
	} `mapstructure:"search"`
	RateLimit struct {
		Enable bool    `mapstructure:"enable"`
		RPS    float64 `mapstructure:"rps"`
		Burst  int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads configuration from the given file (optional; "" means search
// the working directory and ./config for config.yaml), layered under
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLOWDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			// A missing file is fine; defaults and environment carry it.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8000)
	v.SetDefault("database.path", "database/workflows.db")
	v.SetDefault("workflows.root", "workflows")
	v.SetDefault("workflows.watch", false)
	v.SetDefault("workflows.debounce", 2*time.Second)
	v.SetDefault("indexer.workers", 0) // 0 means one worker per CPU
	v.SetDefault("search.cache_size", 1000)
	v.SetDefault("search.cache_ttl", 5*time.Minute)
	v.SetDefault("search.timeout", 5*time.Second)
	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path must not be empty")
	}
	if c.Workflows.Root == "" {
		return errors.New("workflows.root must not be empty")
	}
	if c.Workflows.Debounce < 0 {
		return errors.New("workflows.debounce must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
