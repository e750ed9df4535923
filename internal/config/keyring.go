package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "artlens"

	artsyTokenKey  = "artsy_token"
	imaggaTokenKey = "imagga_token"

	envKeyringBackend  = "ARTLENS_KEYRING_BACKEND"
	envKeyringPassword = "ARTLENS_KEYRING_PASSWORD"
	envCredentialsDir  = "ARTLENS_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

// openKeyring is a package-level function for opening keyrings.
// It can be replaced in tests to use a mock keyring.
var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SetOpenKeyring allows replacing the keyring opener for testing.
// Returns a cleanup function that restores the original.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// Secrets are the service credentials kept in the keyring.
type Secrets struct {
	ArtsyToken  string
	ImaggaToken string
}

// ErrNotConfigured is returned when neither token is stored.
var ErrNotConfigured = errors.New("artlens not configured - run 'artlens auth set' first")

// keyringConfig returns the keyring configuration
func keyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName: serviceName,
	}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	// Always configure file backend details in auto mode so keyring.Open can
	// fall through to encrypted file storage when native backends are missing.
	configureFileBackend(&cfg)

	// Headless Linux should bypass other backends and use encrypted file storage.
	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))) {
	case keyringBackendFile:
		return keyringBackendFile
	case keyringBackendSystem, "os", "native":
		return keyringBackendSystem
	default:
		return keyringBackendAuto
	}
}

func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	if backend == keyringBackendFile {
		return true
	}
	if backend != keyringBackendAuto {
		return false
	}
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

func configureFileBackend(cfg *keyring.Config) {
	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword
}

func keyringFileDir() string {
	base := strings.TrimSpace(os.Getenv(envCredentialsDir))
	if base == "" {
		if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
			base = filepath.Join(dir, serviceName)
		}
	}
	if base == "" {
		base = filepath.Join(os.TempDir(), serviceName)
	}
	return filepath.Join(base, "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password, ok := os.LookupEnv(envKeyringPassword); ok && strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

// SaveSecrets stores the non-empty tokens in secrets. Empty fields leave the
// stored value untouched.
func SaveSecrets(secrets Secrets) error {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}
	for key, value := range map[string]string{
		artsyTokenKey:  secrets.ArtsyToken,
		imaggaTokenKey: secrets.ImaggaToken,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if err := ring.Set(keyring.Item{Key: key, Data: []byte(strings.TrimSpace(value))}); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}
	return nil
}

// LoadSecrets reads both tokens. ErrNotConfigured is returned only when
// neither is present.
func LoadSecrets() (Secrets, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return Secrets{}, fmt.Errorf("failed to open keyring: %w", err)
	}
	var s Secrets
	if s.ArtsyToken, err = getItem(ring, artsyTokenKey); err != nil {
		return Secrets{}, err
	}
	if s.ImaggaToken, err = getItem(ring, imaggaTokenKey); err != nil {
		return Secrets{}, err
	}
	if s.ArtsyToken == "" && s.ImaggaToken == "" {
		return Secrets{}, ErrNotConfigured
	}
	return s, nil
}

// DeleteSecrets removes both tokens. Missing entries are not an error.
func DeleteSecrets() error {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}
	for _, key := range []string{artsyTokenKey, imaggaTokenKey} {
		if err := ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}

func getItem(ring keyring.Keyring, key string) (string, error) {
	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return string(item.Data), nil
}
