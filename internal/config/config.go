// Package config loads application configuration from defaults, an optional
// YAML file and CIRCUIT_* environment variables, in increasing precedence.
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

// Config is the application configuration.
type Config struct {
	// TickInterval is how often the session driver polls the controller.
	TickInterval time.Duration `mapstructure:"tick_interval"`

	// RoutinesFile is where the routine library is persisted.
	RoutinesFile string `mapstructure:"routines_file"`

	// KeepScreenOn requests the screen waker while a session is running.
	KeepScreenOn bool `mapstructure:"keep_screen_on"`

	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

// DefaultDir returns the app's dot directory under the user's home.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".circuit-timer")
}

// Load reads configuration. path may be empty, in which case only the
// default location is tried; a missing file is not an error, an unreadable
// or invalid one is.
func Load(path string) (Config, error) {
	v := viper.New()

	dir := DefaultDir()
	v.SetDefault("tick_interval", 200*time.Millisecond)
	v.SetDefault("routines_file", filepath.Join(dir, "routines.json"))
	v.SetDefault("keep_screen_on", true)
	v.SetDefault("log_file", filepath.Join(dir, "circuit-timer.log"))
	v.SetDefault("log_max_size_mb", 5)
	v.SetDefault("log_max_backups", 3)

	v.SetEnvPrefix("CIRCUIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	}
	if c.TickInterval > time.Second {
		return fmt.Errorf("tick_interval must be sub-second for a usable countdown, got %v", c.TickInterval)
	}
	return nil
}
