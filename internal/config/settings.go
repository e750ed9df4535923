package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration read from and written to TOML as "30s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Settings are the non-secret options kept in config.toml. Zero values mean
// "use the default".
type Settings struct {
	ArtsyURL     string   `toml:"artsy_url,omitempty"`
	ImaggaURL    string   `toml:"imagga_url,omitempty"`
	Timeout      Duration `toml:"timeout,omitempty"`
	RateLimitRPS float64  `toml:"rate_limit_rps,omitempty"`
	ImageVersion string   `toml:"image_version,omitempty"`
	UserAgent    string   `toml:"user_agent,omitempty"`

	Cache CacheSettings `toml:"cache"`
}

// CacheSettings selects and tunes the response cache backend.
type CacheSettings struct {
	Backend   string   `toml:"backend,omitempty"`
	TTL       Duration `toml:"ttl,omitempty"`
	Dir       string   `toml:"dir,omitempty"`
	RedisAddr string   `toml:"redis_addr,omitempty"`
	RedisDB   int      `toml:"redis_db,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/artlens/config.toml or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, serviceName, "config.toml"), nil
}

// ReadSettings parses the TOML file at path. A missing file yields zero
// Settings and no error.
func ReadSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return s, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}

// WriteSettings writes s to path, creating parent directories.
func WriteSettings(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
