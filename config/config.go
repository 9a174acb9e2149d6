// Package config loads settings for the wordfreq commands from an optional
// YAML file, WORDFREQ_ environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// WORDFREQ_BACKEND_URL overrides backend.url.
const EnvPrefix = "WORDFREQ"

// Config holds every setting used by the commands.
type Config struct {
	Backend struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"backend"`
	Upload struct {
		ChunkSize int64 `mapstructure:"chunk_size"`
	} `mapstructure:"upload"`
	UI struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"ui"`
	Refserver struct {
		Listen    string `mapstructure:"listen"`
		CacheSize int    `mapstructure:"cache_size"`
	} `mapstructure:"refserver"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var defaults = map[string]interface{}{
	"backend.url":          "http://localhost:8080",
	"backend.timeout":      "0s",
	"upload.chunk_size":    1 << 20,
	"ui.listen":            ":3000",
	"refserver.listen":     ":8080",
	"refserver.cache_size": 128,
	"log.level":            "info",
}

// Option customizes Load.
type Option func(*viper.Viper) error

// WithFlag makes flag override key when it was set on the command line.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if flag == nil {
			return fmt.Errorf("no flag to bind to %s", key)
		}
		return v.BindPFlag(key, flag)
	}
}

// WithDotEnv loads the variables in the .env file at path into the process
// environment, keeping any that are already set. A missing file is ignored.
func WithDotEnv(path string) Option {
	return func(*viper.Viper) error {
		err := godotenv.Load(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to read %s: %w", path, err)
		}
		return nil
	}
}

// Load reads the YAML file at path, if path is not empty, then applies
// environment overrides and opts. A missing file is an error only when path
// was given explicitly.
func Load(path string, opts ...Option) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Upload.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("upload.chunk_size must be positive, got %d", c.Upload.ChunkSize))
	}
	if u, err := url.Parse(c.Backend.URL); err != nil {
		errs = append(errs, fmt.Errorf("backend.url: %w", err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must not be negative, got %s", c.Backend.Timeout))
	}
	if c.Refserver.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("refserver.cache_size must be positive, got %d", c.Refserver.CacheSize))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn or error, got %q", c.Log.Level))
	}
	return errors.Join(errs...)
}
