// Package config loads mcpstats settings from defaults, an optional YAML
// file, MCPSTATS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/blackwell-systems/mcpstats/internal/analytics"
)

// Keys understood in config.yaml and as MCPSTATS_<KEY> variables.
const (
	KeyFeedURL       = "feed_url"
	KeyDB            = "db"
	KeyGranularity   = "granularity"
	KeyFilter        = "filter"
	KeyMaxPoints     = "max_points"
	KeyWatchInterval = "watch_interval"
)

// FeedFile is the name of the default local feed written by
// mcpstats-snapshot.
const FeedFile = "analytics-latest.json"

// Config holds the resolved settings.
type Config struct {
	FeedURL       string        `mapstructure:"feed_url"`
	DB            string        `mapstructure:"db"`
	Granularity   string        `mapstructure:"granularity"`
	Filter        string        `mapstructure:"filter"`
	MaxPoints     int           `mapstructure:"max_points"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
}

// Dir returns the mcpstats config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/mcpstats if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "mcpstats"), nil
}

// DataDir returns ~/.mcpstats, where the database and local feed live.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".mcpstats"), nil
}

// New returns a viper instance with defaults and environment bindings set
// and the config file read. configFile overrides the search path; a missing
// file in the search path is not an error.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()

	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}
	v.SetDefault(KeyFeedURL, "file://"+filepath.ToSlash(filepath.Join(dataDir, FeedFile)))
	v.SetDefault(KeyDB, filepath.Join(dataDir, "mcpstats.db"))
	v.SetDefault(KeyGranularity, string(analytics.Daily))
	v.SetDefault(KeyFilter, string(analytics.FilterAll))
	v.SetDefault(KeyMaxPoints, analytics.DefaultMaxPoints)
	v.SetDefault(KeyWatchInterval, "5m")

	v.SetEnvPrefix("mcpstats")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyFeedURL)
	}
	if _, err := analytics.ParseGranularity(cfg.Granularity); err != nil {
		return nil, err
	}
	if _, err := analytics.ParseFilter(cfg.Filter); err != nil {
		return nil, err
	}
	if cfg.MaxPoints < 0 {
		return nil, fmt.Errorf("%s must not be negative", KeyMaxPoints)
	}
	if cfg.WatchInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive", KeyWatchInterval)
	}
	return &cfg, nil
}

// Load is New followed by Decode.
func Load(configFile string) (*Config, error) {
	v, err := New(configFile)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}
