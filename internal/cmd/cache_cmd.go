package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artlens/artlens/internal/config"
	"github.com/artlens/artlens/internal/iocontext"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if store == nil {
				printIfNotQuiet(cmd, "Cache is disabled (backend %s)\n", cfg.CacheBackend)
				return nil
			}
			if closeStore != nil {
				defer func() { _ = closeStore() }()
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"cleared": true, "backend": cfg.CacheBackend})
			}
			printIfNotQuiet(cmd, "Cache cleared (%s)\n", cfg.CacheBackend)
			return nil
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show where cached responses are kept",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var location string
			switch cfg.CacheBackend {
			case config.CacheFile:
				if location, err = cacheDir(cfg); err != nil {
					return fmt.Errorf("could not determine cache directory: %w", err)
				}
			case config.CacheRedis:
				location = "redis://" + cfg.RedisAddr
			default:
				location = config.CacheNone
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"backend": cfg.CacheBackend, "location": location})
			}
			_, _ = fmt.Fprintln(iocontext.GetIO(cmd.Context()).Out, location)
			return nil
		}),
	}
}
