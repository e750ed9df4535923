package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/artlens/artlens/internal/cache"
	"github.com/artlens/artlens/internal/config"
)

func TestCachePath_File(t *testing.T) {
	env := setupTestEnv(t)
	t.Setenv(config.EnvCache, config.CacheFile)
	dir := filepath.Join(env.dir, "responses")
	writeConfig(t, env, "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"cache", "path"}); err != nil {
			t.Fatalf("cache path failed: %v", err)
		}
	})
	if strings.TrimSpace(output) != filepath.ToSlash(dir) {
		t.Errorf("path = %q, want %q", output, dir)
	}
}

func TestCacheClear_File(t *testing.T) {
	env := setupTestEnv(t)
	t.Setenv(config.EnvCache, config.CacheFile)
	dir := filepath.Join(env.dir, "responses")
	writeConfig(t, env, "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	store := cache.NewFileStore(filepath.ToSlash(dir))
	store.Put(context.Background(), cache.Key("artsy", "GET", "https://x"), []byte(`{}`))
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected one cache file, got %d", len(entries))
	}

	stderr := captureStderr(t, func() {
		if err := Execute(context.Background(), []string{"cache", "clear"}); err != nil {
			t.Fatalf("cache clear failed: %v", err)
		}
	})
	if !strings.Contains(stderr, "Cache cleared (file)") {
		t.Errorf("stderr = %q", stderr)
	}
	entries, _ = os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache files left: %d", len(entries))
	}
}

func TestCacheClear_Redis(t *testing.T) {
	setupTestEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv(config.EnvCache, config.CacheRedis)
	t.Setenv(config.EnvRedisAddr, mr.Addr())

	_ = mr.Set(cache.DefaultRedisPrefix+"k1", "v")
	_ = mr.Set("other:k", "v")

	_ = captureStderr(t, func() {
		if err := Execute(context.Background(), []string{"cache", "clear"}); err != nil {
			t.Fatalf("cache clear failed: %v", err)
		}
	})
	if mr.Exists(cache.DefaultRedisPrefix + "k1") {
		t.Error("prefixed key should be removed")
	}
	if !mr.Exists("other:k") {
		t.Error("foreign key must survive")
	}
}

func TestCacheClear_Disabled(t *testing.T) {
	setupTestEnv(t)
	stderr := captureStderr(t, func() {
		if err := Execute(context.Background(), []string{"cache", "clear"}); err != nil {
			t.Fatalf("cache clear failed: %v", err)
		}
	})
	if !strings.Contains(stderr, "Cache is disabled") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestSearch_UsesFileCache(t *testing.T) {
	handler := artsyRoutes(newRouteHandler())
	env := setupTestEnvWithHandler(t, handler)
	t.Setenv(config.EnvCache, config.CacheFile)
	writeConfig(t, env, "[cache]\ndir = \""+filepath.ToSlash(filepath.Join(env.dir, "c"))+"\"\n")

	for i := 0; i < 2; i++ {
		_ = captureStdout(t, func() {
			if err := Execute(context.Background(), []string{"search", "warhol"}); err != nil {
				t.Fatalf("search failed: %v", err)
			}
		})
	}
	if got := handler.Hits("GET", "/artsy/search"); got != 1 {
		t.Errorf("search requests = %d, want 1 (second served from cache)", got)
	}

	_ = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"search", "warhol", "--no-cache"}); err != nil {
			t.Fatalf("search failed: %v", err)
		}
	})
	if got := handler.Hits("GET", "/artsy/search"); got != 2 {
		t.Errorf("--no-cache should bypass the cache, requests = %d", got)
	}
}

func TestSearch_UsesRedisCache(t *testing.T) {
	handler := artsyRoutes(newRouteHandler())
	setupTestEnvWithHandler(t, handler)
	mr := miniredis.RunT(t)
	t.Setenv(config.EnvCache, config.CacheRedis)
	t.Setenv(config.EnvRedisAddr, mr.Addr())

	for i := 0; i < 2; i++ {
		_ = captureStdout(t, func() {
			if err := Execute(context.Background(), []string{"search", "warhol"}); err != nil {
				t.Fatalf("search failed: %v", err)
			}
		})
	}
	if got := handler.Hits("GET", "/artsy/search"); got != 1 {
		t.Errorf("search requests = %d, want 1", got)
	}
	if len(mr.Keys()) != 1 {
		t.Errorf("redis keys = %v", mr.Keys())
	}
}
