package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/endpoint"
)

// withMockKeyring sets up a mock keyring for the duration of a test
func withMockKeyring(t *testing.T, ring keyring.Keyring) {
	t.Helper()
	t.Cleanup(SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	}))
}

// withFailingKeyring sets up a keyring that always fails to open
func withFailingKeyring(t *testing.T, err error) {
	t.Helper()
	t.Cleanup(SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		return nil, err
	}))
}

// clearEnv unsets every variable Load reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvArtsyToken, EnvImaggaToken, EnvImaggaKey, EnvImaggaSecret,
		EnvArtsyURL, EnvImaggaURL, EnvCache, EnvRedisAddr, EnvConfig,
		"ARTLENS_NO_CACHE", "ARTLENS_RATE_LIMIT_RPS",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))

	cfg, err := Load(Overrides{Path: filepath.Join(t.TempDir(), "missing.toml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArtsyURL != endpoint.DefaultArtsyURL {
		t.Errorf("ArtsyURL = %q", cfg.ArtsyURL)
	}
	if cfg.ImaggaURL != endpoint.DefaultImaggaURL {
		t.Errorf("ImaggaURL = %q", cfg.ImaggaURL)
	}
	if cfg.Timeout != api.DefaultTimeout {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if cfg.ImageVersion != "tall" {
		t.Errorf("ImageVersion = %q", cfg.ImageVersion)
	}
	if cfg.CacheBackend != CacheFile {
		t.Errorf("CacheBackend = %q", cfg.CacheBackend)
	}
	if cfg.Source("artsy_url") != "default" {
		t.Errorf("Source(artsy_url) = %q", cfg.Source("artsy_url"))
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring([]keyring.Item{
		{Key: artsyTokenKey, Data: []byte("ring-artsy")},
		{Key: imaggaTokenKey, Data: []byte("ring-imagga")},
	}))

	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
artsy_url = "http://file.example/api/"
timeout = "10s"
rate_limit_rps = 2.5
image_version = "large"

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "1m"
`)
	t.Setenv(EnvArtsyURL, "http://env.example/api/")
	t.Setenv(EnvImaggaToken, "env-imagga")

	cfg, err := Load(Overrides{Path: path, Timeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	checks := []struct {
		name, got, want, source string
	}{
		{"artsy_url", cfg.ArtsyURL, "http://env.example/api/", "env"},
		{"artsy_token", cfg.ArtsyToken, "ring-artsy", "keyring"},
		{"imagga_token", cfg.ImaggaToken, "env-imagga", "env"},
		{"image_version", cfg.ImageVersion, "large", "file"},
		{"cache_backend", cfg.CacheBackend, CacheRedis, "file"},
		{"redis_addr", cfg.RedisAddr, "localhost:6379", "file"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
		if got := cfg.Source(c.name); got != c.source {
			t.Errorf("Source(%s) = %q, want %q", c.name, got, c.source)
		}
	}
	if cfg.Timeout != 3*time.Second || cfg.Source("timeout") != "flag" {
		t.Errorf("Timeout = %s from %s, want 3s from flag", cfg.Timeout, cfg.Source("timeout"))
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v", cfg.RateLimitRPS)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}
}

func TestLoad_ImaggaKeySecret(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	t.Setenv(EnvArtsyToken, "a")
	t.Setenv(EnvImaggaKey, "key")
	t.Setenv(EnvImaggaSecret, "secret")

	cfg, err := Load(Overrides{Path: filepath.Join(t.TempDir(), "none.toml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ImaggaToken != api.BasicToken("key", "secret") {
		t.Errorf("ImaggaToken = %q", cfg.ImaggaToken)
	}
	creds := cfg.Credentials()
	if creds.Imagga.Value != "Basic "+api.BasicToken("key", "secret") {
		t.Errorf("Imagga credential = %q", creds.Imagga.Value)
	}

	t.Setenv(EnvImaggaSecret, "")
	if _, err := Load(Overrides{Path: filepath.Join(t.TempDir(), "none.toml")}); err == nil {
		t.Error("expected error for key without secret")
	}
}

func TestLoad_EnvTokensSkipKeyring(t *testing.T) {
	clearEnv(t)
	opened := false
	t.Cleanup(SetOpenKeyring(func(cfg keyring.Config) (keyring.Keyring, error) {
		opened = true
		return keyring.NewArrayKeyring(nil), nil
	}))
	t.Setenv(EnvArtsyToken, "a")
	t.Setenv(EnvImaggaToken, "b")

	if _, err := Load(Overrides{Path: filepath.Join(t.TempDir(), "none.toml")}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opened {
		t.Error("keyring should not be opened when env provides both tokens")
	}
}

func TestLoad_KeyringFailureIsNotFatal(t *testing.T) {
	clearEnv(t)
	withFailingKeyring(t, errors.New("no dbus"))

	cfg, err := Load(Overrides{Path: filepath.Join(t.TempDir(), "none.toml")})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ArtsyToken != "" {
		t.Errorf("ArtsyToken = %q, want empty", cfg.ArtsyToken)
	}
}

func TestLoad_NoCache(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	path := filepath.Join(t.TempDir(), "none.toml")

	cfg, err := Load(Overrides{Path: path, NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheBackend != CacheNone || cfg.Source("cache_backend") != "flag" {
		t.Errorf("CacheBackend = %q from %q", cfg.CacheBackend, cfg.Source("cache_backend"))
	}

	t.Setenv("ARTLENS_NO_CACHE", "1")
	cfg, err = Load(Overrides{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheBackend != CacheNone || cfg.Source("cache_backend") != "env" {
		t.Errorf("CacheBackend = %q from %q", cfg.CacheBackend, cfg.Source("cache_backend"))
	}
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	withMockKeyring(t, keyring.NewArrayKeyring(nil))
	path := filepath.Join(t.TempDir(), "alt.toml")
	writeFile(t, path, `image_version = "square"`)
	t.Setenv(EnvConfig, path)

	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != path || cfg.ImageVersion != "square" {
		t.Errorf("Path = %q ImageVersion = %q", cfg.Path, cfg.ImageVersion)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{"unknown cache backend", "[cache]\nbackend = \"memcached\"\n", nil},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", nil},
		{"bad base url", "artsy_url = \"ftp://api.artsy.net\"\n", nil},
		{"unknown key", "colour = \"blue\"\n", nil},
		{"bad duration", "timeout = \"soon\"\n", nil},
		{"bad rps env", "", map[string]string{"ARTLENS_RATE_LIMIT_RPS": "fast"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			withMockKeyring(t, keyring.NewArrayKeyring(nil))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.toml)
			if _, err := Load(Overrides{Path: path}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	want := Settings{
		ArtsyURL: "http://localhost:8080/api/",
		Timeout:  Duration(45 * time.Second),
		Cache:    CacheSettings{Backend: CacheRedis, RedisAddr: "redis:6379", TTL: Duration(2 * time.Minute)},
	}
	if err := WriteSettings(path, want); err != nil {
		t.Fatalf("WriteSettings: %v", err)
	}
	got, err := ReadSettings(path)
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	data, _ := os.ReadFile(path)
	if !containsLine(string(data), `timeout = '45s'`) && !containsLine(string(data), `timeout = "45s"`) {
		t.Errorf("expected human-readable duration, got:\n%s", data)
	}
}

func containsLine(s, line string) bool {
	for _, l := range strings.Split(s, "\n") {
		if l == line {
			return true
		}
	}
	return false
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "ARTSY_TOKEN=from-dotenv\nIMAGGA_TOKEN=dotenv-imagga\n")
	t.Setenv(EnvImaggaToken, "exported")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvArtsyToken) })

	if got := os.Getenv(EnvArtsyToken); got != "from-dotenv" {
		t.Errorf("ARTSY_TOKEN = %q", got)
	}
	if got := os.Getenv(EnvImaggaToken); got != "exported" {
		t.Errorf("IMAGGA_TOKEN = %q, exported value must win", got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}
