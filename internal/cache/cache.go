// Package cache provides response caches for idempotent API requests.
//
// Two backends implement Store: FileStore keeps brotli-compressed entries on
// disk and RedisStore keeps them in Redis. Both expire entries after a TTL
// (default 5 minutes). Disable caching entirely with ARTLENS_NO_CACHE=1.
package cache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const DefaultTTL = 5 * time.Minute

// Store is a byte-oriented response cache. Get reports a miss rather than an
// error; caching is best-effort and never fails a request.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, data []byte)
	Clear(ctx context.Context) error
}

// Key derives a cache key from request identity (service, method, URL).
// Credentials are never part of the key.
func Key(parts ...string) string {
	hash := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// Disabled reports whether caching is switched off through the environment.
func Disabled() bool {
	return os.Getenv("ARTLENS_NO_CACHE") != ""
}

type entry struct {
	CachedAt time.Time `json:"cached_at"`
	Data     []byte    `json:"data"`
}

const fileSuffix = ".cache"

// FileStore stores one brotli-compressed JSON envelope per key.
type FileStore struct {
	dir string
	ttl time.Duration
}

// NewFileStore creates a FileStore with the default 5-minute TTL.
// dir is the cache directory (typically from DefaultDir).
func NewFileStore(dir string) *FileStore {
	return NewFileStoreWithTTL(dir, DefaultTTL)
}

// NewFileStoreWithTTL creates a FileStore with a custom TTL.
func NewFileStoreWithTTL(dir string, ttl time.Duration) *FileStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileStore{dir: dir, ttl: ttl}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+fileSuffix)
}

// Get loads a cached payload. Returns false on miss (no file, expired, corrupt, disabled).
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool) {
	if Disabled() {
		return nil, false
	}
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(plain, &e); err != nil {
		return nil, false
	}
	if time.Since(e.CachedAt) > s.ttl {
		return nil, false
	}
	return e.Data, true
}

// Put writes a payload. Silently no-ops on error or when disabled.
func (s *FileStore) Put(_ context.Context, key string, data []byte) {
	if Disabled() {
		return
	}
	plain, err := json.Marshal(entry{CachedAt: time.Now(), Data: data})
	if err != nil {
		return
	}
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(plain); err != nil {
		return
	}
	if err := w.Close(); err != nil {
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return
	}

	// Atomic-ish write: write temp then rename.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, path)
}

// Clear removes every cache file from the directory.
// For safety, it only removes files matching this package's naming scheme.
func (s *FileStore) Clear(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// DefaultDir returns the platform-appropriate cache directory.
// Returns "$XDG_CACHE_HOME/artlens" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "artlens"), nil
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.ReplaceAll(key, "/", "-")
	key = strings.ReplaceAll(key, "\\", "-")
	return key
}

func isCacheFilename(name string) bool {
	if !strings.HasSuffix(name, fileSuffix) {
		return false
	}
	base := strings.TrimSuffix(name, fileSuffix)
	return base != "" && !strings.ContainsAny(base, " .")
}
