// Package config loads the schemagraph configuration file.
//
// The file is YAML; every field is optional and falls back to
// DefaultConfig. A handful of environment variables override the file so the
// MCP server can be configured from a client's launch settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/schemagraph/internal/cache"
	"github.com/HendryAvila/schemagraph/internal/flow"
	"github.com/HendryAvila/schemagraph/internal/layout"
	"github.com/HendryAvila/schemagraph/internal/mapping"
	"github.com/HendryAvila/schemagraph/internal/orkg"
	"github.com/HendryAvila/schemagraph/internal/retry"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Environment variables that override the file.
const (
	EnvAPIURL   = "SCHEMAGRAPH_API_URL"
	EnvCacheDir = "SCHEMAGRAPH_CACHE_DIR"
	EnvLogLevel = "SCHEMAGRAPH_LOG_LEVEL"
	EnvHTTPAddr = "SCHEMAGRAPH_HTTP_ADDR"
)

// APIConfig configures the remote template API.
type APIConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	PropertyTimeout time.Duration `yaml:"property_timeout"`
	RateLimit       float64       `yaml:"rate_limit"`
	Burst           int           `yaml:"burst"`
	MaxAttempts     int           `yaml:"max_attempts"`
}

// CacheConfig configures the SQLite template cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// LoaderConfig configures the flow loader.
type LoaderConfig struct {
	Concurrency     int    `yaml:"concurrency"`
	CandidatePolicy string `yaml:"candidate_policy"`
}

// LayoutConfig configures node spacing.
type LayoutConfig struct {
	HorizontalSpacing float64 `yaml:"horizontal_spacing"`
	VerticalSpacing   float64 `yaml:"vertical_spacing"`
}

// MappingConfig bounds predicate mapping expansion.
type MappingConfig struct {
	MaxDepth  int  `yaml:"max_depth"`
	CycleSafe bool `yaml:"cycle_safe"`
}

// HTTPConfig configures the HTTP API server.
type HTTPConfig struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the whole configuration file.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Cache   CacheConfig   `yaml:"cache"`
	Loader  LoaderConfig  `yaml:"loader"`
	Layout  LayoutConfig  `yaml:"layout"`
	Mapping MappingConfig `yaml:"mapping"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cc := cache.DefaultConfig()
	lo := layout.DefaultOptions()
	return &Config{
		API: APIConfig{
			BaseURL:         orkg.DefaultBaseURL,
			Timeout:         10 * time.Second,
			PropertyTimeout: flow.DefaultPropertyTimeout,
			RateLimit:       10,
			Burst:           5,
			MaxAttempts:     retry.DefaultConfig().MaxAttempts,
		},
		Cache:   CacheConfig{Enabled: true, Dir: cc.Dir, TTL: cc.TTL},
		Loader:  LoaderConfig{Concurrency: flow.DefaultOptions().Concurrency, CandidatePolicy: string(flow.CandidateFirst)},
		Layout:  LayoutConfig{HorizontalSpacing: lo.HorizontalSpacing, VerticalSpacing: lo.VerticalSpacing},
		Mapping: MappingConfig{MaxDepth: mapping.DefaultMaxDepth},
		HTTP:    HTTPConfig{Addr: "127.0.0.1:8080", CORSOrigin: "*"},
		Log:     LogConfig{Level: "info"},
	}
}

// DefaultPath is ~/.schemagraph/config.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".schemagraph", "config.yaml")
}

// Load reads the file at path over DefaultConfig. A missing file is not an
// error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	default:
		defer f.Close() //nolint:errcheck
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return enc.Close()
}

// ApplyEnv overrides fields from the environment through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvHTTPAddr); v != "" {
		c.HTTP.Addr = v
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Timeout < 0 || c.API.PropertyTimeout < 0 {
		errs = append(errs, errors.New("api timeouts must not be negative"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir is required when the cache is enabled"))
	}
	if c.Loader.Concurrency < 0 {
		errs = append(errs, errors.New("loader.concurrency must not be negative"))
	}
	if _, err := flow.ParseCandidatePolicy(c.Loader.CandidatePolicy); err != nil {
		errs = append(errs, fmt.Errorf("loader.candidate_policy: %q is not first or lowest", c.Loader.CandidatePolicy))
	}
	if c.Layout.HorizontalSpacing < 0 || c.Layout.VerticalSpacing < 0 {
		errs = append(errs, errors.New("layout spacing must not be negative"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %q is not debug, info, warn or error", c.Log.Level)
	}
	return lvl, nil
}

// ClientConfig returns the HTTP lookup client configuration.
func (c *Config) ClientConfig(version string) orkg.ClientConfig {
	rc := retry.DefaultConfig()
	if c.API.MaxAttempts > 0 {
		rc.MaxAttempts = c.API.MaxAttempts
	}
	return orkg.ClientConfig{
		BaseURL:   c.API.BaseURL,
		Timeout:   c.API.Timeout,
		RateLimit: c.API.RateLimit,
		Burst:     c.API.Burst,
		Retry:     rc,
		UserAgent: "schemagraph/" + version,
	}
}

// CacheStoreConfig returns the cache store configuration.
func (c *Config) CacheStoreConfig() cache.Config {
	return cache.Config{Dir: c.Cache.Dir, TTL: c.Cache.TTL}
}

// LoaderOptions returns the flow loader options. Logger and metrics are left
// for the caller.
func (c *Config) LoaderOptions() flow.Options {
	policy, _ := flow.ParseCandidatePolicy(c.Loader.CandidatePolicy)
	return flow.Options{
		Concurrency:     c.Loader.Concurrency,
		PropertyTimeout: c.API.PropertyTimeout,
		Policy:          policy,
	}
}

// LayoutOptions returns the layout spacing.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		HorizontalSpacing: c.Layout.HorizontalSpacing,
		VerticalSpacing:   c.Layout.VerticalSpacing,
	}
}

// MappingOptions returns the mapping bounds.
func (c *Config) MappingOptions() mapping.Options {
	return mapping.Options{MaxDepth: c.Mapping.MaxDepth, CycleSafe: c.Mapping.CycleSafe}
}
