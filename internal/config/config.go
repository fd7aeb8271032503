// Package config loads pocketpos settings from a config file and
// environment variables.
//
// Settings are looked up in this order: environment variables with the
// POS_ prefix (POS_REMOTE_URL, POS_REMOTE_AUTH_TOKEN, ...), then the
// config file, then built-in defaults. The config file is optional; a
// fresh install runs entirely on defaults with an empty remote URL,
// which keeps the shop permanently offline until one is configured.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the process needs at startup.
type Config struct {
	// DataDir holds the local SQLite database and log files.
	DataDir string `mapstructure:"data_dir"`

	Remote RemoteConfig `mapstructure:"remote"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Log    LogConfig    `mapstructure:"log"`
}

// RemoteConfig points at the remote libSQL database.
type RemoteConfig struct {
	// URL is the libsql:// database URL. Empty means no remote store:
	// the shop runs local-only and every record stays pending.
	URL string `mapstructure:"url"`

	AuthToken string `mapstructure:"auth_token"`
}

// SyncConfig tunes the connectivity monitor.
type SyncConfig struct {
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout"`
}

// LogConfig controls the optional rotating log file.
type LogConfig struct {
	// File is the log file path; empty logs to stderr only.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LocalDBPath returns the local database location inside DataDir.
func (c *Config) LocalDBPath() string {
	return filepath.Join(c.DataDir, "pocketpos.db")
}

// Load reads configuration from path, or from the default locations
// when path is empty: $POS_CONFIG, then $HOME/.pocketpos/config.yaml.
// A missing config file is fine; defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.auth_token", "")
	v.SetDefault("sync.probe_interval", 10*time.Second)
	v.SetDefault("sync.probe_timeout", 5*time.Second)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 30)

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("POS_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".pocketpos"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// An explicit config file must exist and parse; the default
		// search locations are optional.
		if path != "" {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Sync.ProbeInterval <= 0 {
		return nil, fmt.Errorf("sync.probe_interval must be positive")
	}
	if cfg.Sync.ProbeTimeout <= 0 {
		return nil, fmt.Errorf("sync.probe_timeout must be positive")
	}

	return &cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pocketpos"
	}
	return filepath.Join(home, ".pocketpos")
}
