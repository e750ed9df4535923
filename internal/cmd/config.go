package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/artlens/artlens/internal/config"
	"github.com/artlens/artlens/internal/iocontext"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Inspect and create the settings file",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

type settingRow struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func configRows(cfg *config.Config) []settingRow {
	row := func(name, value string) settingRow {
		return settingRow{Name: name, Value: value, Source: cfg.Source(name)}
	}
	rows := []settingRow{
		row("artsy_url", cfg.ArtsyURL),
		row("imagga_url", cfg.ImaggaURL),
		row("timeout", cfg.Timeout.String()),
		row("rate_limit_rps", fmt.Sprintf("%g", cfg.RateLimitRPS)),
		row("image_version", cfg.ImageVersion),
		row("user_agent", cfg.UserAgent),
		row("cache_backend", cfg.CacheBackend),
		row("cache_ttl", cfg.CacheTTL.String()),
	}
	switch cfg.CacheBackend {
	case config.CacheFile:
		dir, _ := cacheDir(cfg)
		rows = append(rows, row("cache_dir", dir))
	case config.CacheRedis:
		rows = append(rows, row("redis_addr", cfg.RedisAddr), row("redis_db", fmt.Sprintf("%d", cfg.RedisDB)))
	}
	return rows
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective settings and where each one comes from",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			rows := configRows(cfg)
			if isJSON(cmd) {
				return printJSON(cmd, rows)
			}
			f := newFormatter(cmd)
			f.StartTable([]string{"SETTING", "VALUE", "SOURCE"})
			for _, r := range rows {
				value := r.Value
				if value == "" {
					value = "-"
				}
				f.Row(r.Name, value, r.Source)
			}
			return f.EndTable()
		}),
	}
}

func configPath() (string, error) {
	if flags.Config != "" {
		return flags.Config, nil
	}
	if p := strings.TrimSpace(os.Getenv(config.EnvConfig)); p != "" {
		return p, nil
	}
	return config.DefaultPath()
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			path, err := configPath()
			if err != nil {
				return fmt.Errorf("could not determine config path: %w", err)
			}
			_, exists := os.Stat(path)
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"path": path, "exists": exists == nil})
			}
			_, _ = fmt.Fprintln(iocontext.GetIO(cmd.Context()).Out, path)
			return nil
		}),
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file populated with the defaults",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			path, err := configPath()
			if err != nil {
				return fmt.Errorf("could not determine config path: %w", err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			d := config.Defaults()
			s := config.Settings{
				ArtsyURL:     d.ArtsyURL,
				ImaggaURL:    d.ImaggaURL,
				Timeout:      config.Duration(d.Timeout),
				ImageVersion: d.ImageVersion,
				Cache: config.CacheSettings{
					Backend: d.CacheBackend,
					TTL:     config.Duration(d.CacheTTL),
				},
			}
			if err := config.WriteSettings(path, s); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"path": path, "written_at": time.Now().UTC()})
			}
			printIfNotQuiet(cmd, "Wrote %s\n", path)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
