package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/cache"
	"github.com/artlens/artlens/internal/config"
	"github.com/artlens/artlens/internal/endpoint"
	"github.com/artlens/artlens/internal/manager"
)

// app is everything a service command needs: the resolved config, the
// shared client and a manager bound to it. Close releases the cache
// connection and flushes metrics.
type app struct {
	cfg     *config.Config
	client  *api.Client
	manager *manager.Manager
	closers []func() error
}

func loadConfig() (*config.Config, error) {
	o := config.Overrides{Path: flags.Config, NoCache: flags.NoCache}
	if flags.TimeoutSet {
		o.Timeout = flags.Timeout
	}
	return config.Load(o)
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.Credentials())
	client.HTTP.Timeout = cfg.Timeout
	client.UserAgent = fmt.Sprintf("artlens/%s", version)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	if cfg.RateLimitRPS > 0 {
		client.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1)
	}

	a := &app{cfg: cfg, client: client}

	store, closeStore, err := openCache(ctx, cfg)
	if err != nil {
		// Caching is best-effort; a down Redis should not block requests.
		slog.Warn("response cache disabled", "backend", cfg.CacheBackend, "error", err)
	} else if store != nil {
		client.Cache = store
		if closeStore != nil {
			a.closers = append(a.closers, closeStore)
		}
	}

	if path := flags.MetricsFile; path != "" {
		client.Metrics = api.NewMetrics()
		a.closers = append(a.closers, func() error {
			return client.Metrics.WriteFile(path)
		})
	}

	artsy, err := endpoint.NewArtsy(cfg.ArtsyURL)
	if err != nil {
		return nil, err
	}
	imagga, err := endpoint.NewImagga(cfg.ImaggaURL)
	if err != nil {
		return nil, err
	}
	a.manager = manager.New(client, artsy, imagga, manager.WithImageVersion(cfg.ImageVersion))
	return a, nil
}

// Close logs the quotas the services reported, then runs the registered
// closers and returns the first error.
func (a *app) Close() error {
	for service, q := range a.client.Quotas() {
		slog.Debug("rate limit", append([]any{"service", string(service)}, q.LogAttrs()...)...)
	}
	var first error
	for _, fn := range a.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openCache builds the configured response cache. A nil store means caching
// is off.
func openCache(ctx context.Context, cfg *config.Config) (cache.Store, func() error, error) {
	switch cfg.CacheBackend {
	case config.CacheFile:
		dir, err := cacheDir(cfg)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewFileStoreWithTTL(dir, cfg.CacheTTL), nil, nil
	case config.CacheRedis:
		rdb, err := cache.DialRedis(ctx, cfg.RedisAddr, "", cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		store := cache.NewRedisStore(rdb, "", cfg.CacheTTL)
		return store, store.Close, nil
	default:
		return nil, nil, nil
	}
}

func cacheDir(cfg *config.Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	return cache.DefaultDir()
}
