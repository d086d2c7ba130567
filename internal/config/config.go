// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads mediabutton server configuration.
//
// Values are layered: flag defaults, then the YAML config file, then flags
// the user set explicitly. Keys use snake_case and nest with ".".
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/mediabutton/internal/logging"
	"github.com/holomush/mediabutton/internal/mediabutton"
)

// CodeInvalid marks configuration errors.
const CodeInvalid = "CONFIG_INVALID"

// Defaults.
const (
	DefaultLogFormat      = "json"
	DefaultLogLevel       = "info"
	DefaultHTTPAddr       = "127.0.0.1:8480"
	DefaultMetricsAddr    = "127.0.0.1:9480"
	DefaultClickTimeout   = 5 * time.Second
	DefaultHookMaxRetries = 3
	DefaultHookBaseDelay  = 50 * time.Millisecond
)

// Config is the server configuration.
type Config struct {
	LogFormat    string        `koanf:"log_format"`
	LogLevel     string        `koanf:"log_level"`
	HTTPAddr     string        `koanf:"http_addr"`
	MetricsAddr  string        `koanf:"metrics_addr"`
	DatabaseURL  string        `koanf:"database_url"`
	WorldFile    string        `koanf:"world_file"`
	PluginsDir   string        `koanf:"plugins_dir"`
	Admins       []string      `koanf:"admins"`
	SearchRadius float64       `koanf:"search_radius"`
	ClickTimeout time.Duration `koanf:"click_timeout"`
	Hooks        HooksConfig   `koanf:"hooks"`
}

// HooksConfig tunes hook delivery retries.
type HooksConfig struct {
	MaxRetries uint64        `koanf:"max_retries"`
	BaseDelay  time.Duration `koanf:"base_delay"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"log-format":       "log_format",
	"log-level":        "log_level",
	"http-addr":        "http_addr",
	"metrics-addr":     "metrics_addr",
	"database-url":     "database_url",
	"world-file":       "world_file",
	"plugins-dir":      "plugins_dir",
	"admin":            "admins",
	"search-radius":    "search_radius",
	"click-timeout":    "click_timeout",
	"hook-max-retries": "hooks.max_retries",
	"hook-base-delay":  "hooks.base_delay",
}

// RegisterFlags adds the configuration flags, carrying the defaults, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("http-addr", DefaultHTTPAddr, "click ingress HTTP address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL URL (empty = in-memory world, also read from DATABASE_URL)")
	fs.String("world-file", "", "YAML world file to seed objects from")
	fs.String("plugins-dir", "", "directory scanned for binary plugins (empty = disabled)")
	fs.StringSlice("admin", nil, "admin subject glob, e.g. user:ops-* (repeatable)")
	fs.Float64("search-radius", mediabutton.DefaultSearchRadius, "nearest media player search radius")
	fs.Duration("click-timeout", DefaultClickTimeout, "per-component click timeout")
	fs.Uint64("hook-max-retries", DefaultHookMaxRetries, "retries for a failing hook handler")
	fs.Duration("hook-base-delay", DefaultHookBaseDelay, "initial hook retry backoff")
}

// Load builds a Config from the file at path (skipped when empty or
// missing and optional) and flags.
func Load(path string, optional bool, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		err := k.Load(file.Provider(path), yaml.Parser())
		switch {
		case err == nil:
		case optional && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, oops.Code(CodeInvalid).With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeInvalid).Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code(CodeInvalid).Wrap(err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code(CodeInvalid).With("log_format", c.LogFormat).
			Errorf("log_format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.Code(CodeInvalid).With("log_level", c.LogLevel).Wrap(err)
	}
	if c.HTTPAddr == "" {
		return oops.Code(CodeInvalid).Errorf("http_addr is required")
	}
	if c.SearchRadius <= 0 {
		return oops.Code(CodeInvalid).With("search_radius", c.SearchRadius).
			Errorf("search_radius must be positive")
	}
	if c.ClickTimeout < 0 {
		return oops.Code(CodeInvalid).With("click_timeout", c.ClickTimeout).
			Errorf("click_timeout must not be negative")
	}
	if c.Hooks.BaseDelay <= 0 {
		return oops.Code(CodeInvalid).With("hooks.base_delay", c.Hooks.BaseDelay).
			Errorf("hooks.base_delay must be positive")
	}
	return nil
}
