// Package config resolves artlens settings from flags, the environment, a
// TOML settings file and the OS keyring.
//
// Precedence, highest first: flag, environment, config.toml, keyring
// (tokens only), built-in default.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/cache"
	"github.com/artlens/artlens/internal/endpoint"
	"github.com/artlens/artlens/internal/parse"
)

// Environment variables read by Load.
const (
	EnvArtsyToken   = "ARTSY_TOKEN"
	EnvImaggaToken  = "IMAGGA_TOKEN"
	EnvImaggaKey    = "IMAGGA_API_KEY"
	EnvImaggaSecret = "IMAGGA_API_SECRET"
	EnvArtsyURL     = "ARTLENS_ARTSY_URL"
	EnvImaggaURL    = "ARTLENS_IMAGGA_URL"
	EnvCache        = "ARTLENS_CACHE"
	EnvRedisAddr    = "ARTLENS_REDIS_ADDR"
	EnvConfig       = "ARTLENS_CONFIG"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// CacheBackends lists the accepted values for the cache backend.
var CacheBackends = []string{CacheNone, CacheFile, CacheRedis}

// Config is the fully resolved configuration.
type Config struct {
	Path string `json:"path"`

	ArtsyURL     string        `json:"artsy_url"`
	ImaggaURL    string        `json:"imagga_url"`
	ArtsyToken   string        `json:"-"`
	ImaggaToken  string        `json:"-"`
	Timeout      time.Duration `json:"timeout"`
	RateLimitRPS float64       `json:"rate_limit_rps"`
	ImageVersion string        `json:"image_version"`
	UserAgent    string        `json:"user_agent,omitempty"`

	CacheBackend string        `json:"cache_backend"`
	CacheTTL     time.Duration `json:"cache_ttl"`
	CacheDir     string        `json:"cache_dir,omitempty"`
	RedisAddr    string        `json:"redis_addr,omitempty"`
	RedisDB      int           `json:"redis_db,omitempty"`

	// Sources records where each setting came from: flag, env, file,
	// keyring or default.
	Sources map[string]string `json:"sources"`
}

// Overrides carries command-line values. Zero values are ignored.
type Overrides struct {
	Path    string
	Timeout time.Duration
	NoCache bool
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		ArtsyURL:     endpoint.DefaultArtsyURL,
		ImaggaURL:    endpoint.DefaultImaggaURL,
		Timeout:      api.DefaultTimeout,
		ImageVersion: parse.DefaultImageVersion,
		CacheBackend: CacheFile,
		CacheTTL:     cache.DefaultTTL,
		Sources:      map[string]string{},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load resolves the configuration.
func Load(o Overrides) (*Config, error) {
	cfg := Defaults()

	path := o.Path
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			slog.Debug("no user config dir", "error", err)
		}
		path = p
	}
	cfg.Path = path

	needSecrets := os.Getenv(EnvArtsyToken) == "" || (os.Getenv(EnvImaggaToken) == "" && os.Getenv(EnvImaggaKey) == "")
	if needSecrets {
		secrets, err := LoadSecrets()
		switch {
		case err == nil:
			cfg.set("artsy_token", "keyring", &cfg.ArtsyToken, secrets.ArtsyToken)
			cfg.set("imagga_token", "keyring", &cfg.ImaggaToken, secrets.ImaggaToken)
		case errors.Is(err, ErrNotConfigured):
		default:
			slog.Debug("keyring unavailable", "error", err)
		}
	}

	if path != "" {
		s, err := ReadSettings(path)
		if err != nil {
			return nil, err
		}
		cfg.applySettings(s)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
		cfg.Sources["timeout"] = "flag"
	}
	switch {
	case o.NoCache:
		cfg.CacheBackend = CacheNone
		cfg.Sources["cache_backend"] = "flag"
	case cache.Disabled():
		cfg.CacheBackend = CacheNone
		cfg.Sources["cache_backend"] = "env"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applySettings(s Settings) {
	const src = "file"
	c.set("artsy_url", src, &c.ArtsyURL, s.ArtsyURL)
	c.set("imagga_url", src, &c.ImaggaURL, s.ImaggaURL)
	c.set("image_version", src, &c.ImageVersion, s.ImageVersion)
	c.set("user_agent", src, &c.UserAgent, s.UserAgent)
	c.set("cache_backend", src, &c.CacheBackend, strings.ToLower(s.Cache.Backend))
	c.set("cache_dir", src, &c.CacheDir, s.Cache.Dir)
	c.set("redis_addr", src, &c.RedisAddr, s.Cache.RedisAddr)
	if s.Timeout > 0 {
		c.Timeout = time.Duration(s.Timeout)
		c.Sources["timeout"] = src
	}
	if s.RateLimitRPS > 0 {
		c.RateLimitRPS = s.RateLimitRPS
		c.Sources["rate_limit_rps"] = src
	}
	if s.Cache.TTL > 0 {
		c.CacheTTL = time.Duration(s.Cache.TTL)
		c.Sources["cache_ttl"] = src
	}
	if s.Cache.RedisDB > 0 {
		c.RedisDB = s.Cache.RedisDB
		c.Sources["redis_db"] = src
	}
}

func (c *Config) applyEnv() error {
	const src = "env"
	c.set("artsy_token", src, &c.ArtsyToken, os.Getenv(EnvArtsyToken))
	if key, secret := os.Getenv(EnvImaggaKey), os.Getenv(EnvImaggaSecret); key != "" {
		if secret == "" {
			return fmt.Errorf("%s is set but %s is empty", EnvImaggaKey, EnvImaggaSecret)
		}
		c.set("imagga_token", src, &c.ImaggaToken, api.BasicToken(key, secret))
	}
	c.set("imagga_token", src, &c.ImaggaToken, os.Getenv(EnvImaggaToken))
	c.set("artsy_url", src, &c.ArtsyURL, os.Getenv(EnvArtsyURL))
	c.set("imagga_url", src, &c.ImaggaURL, os.Getenv(EnvImaggaURL))
	c.set("cache_backend", src, &c.CacheBackend, strings.ToLower(os.Getenv(EnvCache)))
	c.set("redis_addr", src, &c.RedisAddr, os.Getenv(EnvRedisAddr))
	if v := strings.TrimSpace(os.Getenv("ARTLENS_RATE_LIMIT_RPS")); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return fmt.Errorf("ARTLENS_RATE_LIMIT_RPS must be a non-negative number")
		}
		c.RateLimitRPS = rps
		c.Sources["rate_limit_rps"] = src
	}
	return nil
}

func (c *Config) set(name, source string, dst *string, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*dst = value
	c.Sources[name] = source
}

// Validate checks values that would otherwise fail later in a less obvious way.
func (c *Config) Validate() error {
	if _, err := endpoint.NewArtsy(c.ArtsyURL); err != nil {
		return err
	}
	if _, err := endpoint.NewImagga(c.ImaggaURL); err != nil {
		return err
	}
	switch c.CacheBackend {
	case CacheNone, CacheFile:
	case CacheRedis:
		if c.RedisAddr == "" {
			return api.NewValidationError("redis_addr", "", []string{"host:port"})
		}
	default:
		return api.NewValidationError("cache backend", c.CacheBackend, CacheBackends)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// Credentials builds the per-service credentials.
func (c *Config) Credentials() api.Credentials {
	return api.Credentials{
		Artsy:  api.ArtsyCredential(c.ArtsyToken),
		Imagga: api.ImaggaCredential(c.ImaggaToken),
	}
}

// Source reports where a setting came from.
func (c *Config) Source(name string) string {
	if s, ok := c.Sources[name]; ok {
		return s
	}
	return "default"
}
