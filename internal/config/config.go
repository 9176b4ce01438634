// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkwell Contributors

// Package config loads server settings from defaults, an optional YAML
// file, secret environment variables and command-line flags, in that order
// of increasing precedence.
package config

import (
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Environment variables that override file values. Flags still win.
const (
	EnvDatabaseURL  = "DATABASE_URL"
	EnvResendAPIKey = "RESEND_API_KEY"
)

// Config is the complete server configuration.
type Config struct {
	Env            string        `koanf:"env"`
	HTTPAddr       string        `koanf:"http_addr"`
	MetricsAddr    string        `koanf:"metrics_addr"`
	DatabaseURL    string        `koanf:"database_url"`
	FrontendURL    string        `koanf:"frontend_url"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	LogFormat      string        `koanf:"log_format"`
	LogLevel       string        `koanf:"log_level"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
	Mail           Mail          `koanf:"mail"`
}

// Mail configures outbound email delivery.
type Mail struct {
	APIKey  string `koanf:"api_key"`
	From    string `koanf:"from"`
	BaseURL string `koanf:"base_url"`
}

// Default values.
const (
	DefaultHTTPAddr      = ":8080"
	DefaultMetricsAddr   = "127.0.0.1:9100"
	DefaultFrontendURL   = "http://localhost:3000"
	DefaultLogFormat     = "json"
	DefaultLogLevel      = "info"
	DefaultSweepInterval = time.Hour
	DefaultMailFrom      = "Newsletter <newsletter@inkwell.dev>"
	DefaultMailBaseURL   = "https://api.resend.com"
)

// MinSweepInterval matches the scheduler's finest interval.
const MinSweepInterval = time.Second

func defaults() map[string]any {
	return map[string]any{
		"env":             EnvDevelopment,
		"http_addr":       DefaultHTTPAddr,
		"metrics_addr":    DefaultMetricsAddr,
		"database_url":    "",
		"frontend_url":    DefaultFrontendURL,
		"allowed_origins": []string{},
		"log_format":      DefaultLogFormat,
		"log_level":       DefaultLogLevel,
		"sweep_interval":  DefaultSweepInterval,
		"auto_migrate":    true,
		"mail.api_key":    "",
		"mail.from":       DefaultMailFrom,
		"mail.base_url":   DefaultMailBaseURL,
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"env":             "env",
	"http-addr":       "http_addr",
	"metrics-addr":    "metrics_addr",
	"frontend-url":    "frontend_url",
	"allowed-origins": "allowed_origins",
	"log-format":      "log_format",
	"log-level":       "log_level",
	"sweep-interval":  "sweep_interval",
	"auto-migrate":    "auto_migrate",
	"mail-from":       "mail.from",
}

// RegisterFlags adds the config flags to fs. Only flags the user sets
// override the file; unset flags leave file values alone.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("env", EnvDevelopment, "deployment environment (development, production, test)")
	fs.String("http-addr", DefaultHTTPAddr, "API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("frontend-url", DefaultFrontendURL, "public frontend URL used in emails and CORS")
	fs.StringSlice("allowed-origins", nil, "extra CORS origins besides the frontend URL")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.Duration("sweep-interval", DefaultSweepInterval, "interval between expired credential sweeps")
	fs.Bool("auto-migrate", true, "apply pending migrations on startup")
	fs.String("mail-from", DefaultMailFrom, "sender address for outbound email")
}

// Load builds a Config. path may be empty; fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_DEFAULTS_FAILED").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	for env, key := range map[string]string{
		EnvDatabaseURL:  "database_url",
		EnvResendAPIKey: "mail.api_key",
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_ENV_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").Wrap(err)
	}
	return &cfg, nil
}

// IsProduction reports whether cookies must be Secure and mail must be real.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Origins returns the CORS allow list: the frontend URL followed by any
// extra origins, without duplicates.
func (c *Config) Origins() []string {
	origins := []string{strings.TrimRight(c.FrontendURL, "/")}
	for _, o := range c.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}
	return origins
}

func invalid(field, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return invalid("env", "env must be development, production or test, got %q", c.Env)
	}
	if c.HTTPAddr == "" {
		return invalid("http_addr", "http-addr is required")
	}
	if c.DatabaseURL == "" {
		return invalid("database_url", "%s is required", EnvDatabaseURL)
	}
	if u, err := url.Parse(c.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("frontend_url", "frontend-url must be an absolute URL, got %q", c.FrontendURL)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log_format", "log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.SweepInterval < MinSweepInterval {
		return invalid("sweep_interval", "sweep-interval must be at least %s, got %s", MinSweepInterval, c.SweepInterval)
	}
	if c.IsProduction() && c.Mail.APIKey == "" {
		return invalid("mail.api_key", "%s is required in production", EnvResendAPIKey)
	}
	if c.Mail.From == "" {
		return invalid("mail.from", "mail-from is required")
	}
	return nil
}
