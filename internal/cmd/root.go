package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/config"
	"github.com/artlens/artlens/internal/debug"
	"github.com/artlens/artlens/internal/iocontext"
	"github.com/artlens/artlens/internal/outfmt"
)

// rootFlags holds global CLI flags
type rootFlags struct {
	Output      string
	JSON        bool
	Query       string
	JQ          string
	Template    string
	Compact     bool
	Debug       bool
	LogFormat   string
	Quiet       bool
	Timeout     time.Duration
	TimeoutSet  bool
	Config      string
	NoCache     bool
	MetricsFile string
	EnvFile     string
}

// flags holds the global command flags. It is reset at the start of every
// Execute call so runs never observe each other's values.
var flags = defaultFlags()

func defaultFlags() rootFlags {
	return rootFlags{
		Output:    defaultOutput(),
		LogFormat: debug.FormatText,
		Timeout:   api.DefaultTimeout,
		EnvFile:   ".env",
	}
}

func defaultOutput() string {
	if value := strings.TrimSpace(os.Getenv("ARTLENS_OUTPUT")); value != "" {
		return value
	}
	return "text"
}

// Execute runs the root command
func Execute(ctx context.Context, args []string) error {
	flags = defaultFlags()

	root := &cobra.Command{
		Use:                "artlens",
		Short:              "Search Artsy artists and artworks, and tag images with Imagga",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableSuggestions: true, // enhanceUnknownError provides did-you-mean
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if flags.EnvFile != "" {
				if err := config.LoadDotEnv(flags.EnvFile); err != nil {
					return fmt.Errorf("load %s: %w", flags.EnvFile, err)
				}
			}

			if flags.JSON {
				if flagOrAliasChanged(cmd, "output") && flags.Output != "json" {
					return fmt.Errorf("--json conflicts with --output %s", flags.Output)
				}
				flags.Output = "json"
			}
			query := getJQQuery()
			if (query != "" || flags.Template != "") && !flagOrAliasChanged(cmd, "output") && flags.Output == "text" {
				flags.Output = "json"
			}

			mode, err := outfmt.Parse(flags.Output)
			if err != nil {
				return err
			}
			if query != "" && mode == outfmt.Text {
				return fmt.Errorf("--query/--jq require --output json or jsonl")
			}
			ctx = outfmt.WithMode(ctx, mode)
			ctx = outfmt.WithCompact(ctx, flags.Compact)
			if query != "" {
				ctx = outfmt.WithQuery(ctx, query)
			}
			if flags.Template != "" {
				tmpl, err := loadTemplate(flags.Template)
				if err != nil {
					return err
				}
				ctx = outfmt.WithTemplate(ctx, tmpl)
			}

			ioStreams := iocontext.DefaultIO()
			if flags.Quiet {
				ioStreams = ioStreams.Silenced(mode == outfmt.Text)
			}
			ctx = iocontext.WithIO(ctx, ioStreams)
			cmd.SetOut(ioStreams.Out)
			cmd.SetErr(ioStreams.ErrOut)

			debug.SetupLoggerFormat(flags.Debug, flags.LogFormat)
			ctx = debug.WithDebug(ctx, flags.Debug)

			flags.TimeoutSet = flagOrAliasChanged(cmd, "timeout")
			if flags.TimeoutSet && flags.Timeout <= 0 {
				return fmt.Errorf("--timeout must be positive")
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetContext(ctx)
	root.SetArgs(args)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", flags.Output, "Output format: text|json|jsonl (env ARTLENS_OUTPUT)")
	pf.BoolVarP(&flags.JSON, "json", "j", false, "Shorthand for --output json")
	pf.StringVarP(&flags.Query, "query", "q", "", "jq expression to filter JSON output")
	pf.StringVar(&flags.JQ, "jq", "", "Alias for --query")
	pf.StringVar(&flags.Template, "template", "", "Go template string (or @path) to render output")
	pf.BoolVar(&flags.Compact, "compact-json", false, "Compact JSON output (no indentation)")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&flags.LogFormat, "log-format", flags.LogFormat, "Log format: text|json")
	pf.BoolVarP(&flags.Quiet, "quiet", "Q", false, "Suppress non-essential output")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "HTTP request timeout (e.g., 30s, 2m)")
	pf.StringVar(&flags.Config, "config", "", "Path to config.toml (env ARTLENS_CONFIG)")
	pf.BoolVar(&flags.NoCache, "no-cache", false, "Bypass the response cache")
	pf.StringVar(&flags.MetricsFile, "metrics-file", "", "Write request metrics in Prometheus text format to this file")
	pf.StringVar(&flags.EnvFile, "env-file", flags.EnvFile, "Load KEY=VALUE pairs from this file (existing env wins)")

	flagAlias(pf, "output", "out")
	flagAlias(pf, "query", "qr")
	flagAlias(pf, "template", "tpl")
	flagAlias(pf, "compact-json", "cj")
	flagAlias(pf, "debug", "dbg")
	flagAlias(pf, "timeout", "to")
	flagAlias(pf, "no-cache", "nc")

	root.AddCommand(newSearchCmd())
	root.AddCommand(newArtworksCmd())
	root.AddCommand(newImageCmd())
	root.AddCommand(newTagsCmd())
	root.AddCommand(newBrowseCmd())
	root.AddCommand(newAuthCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newVersionCmd())

	targetCmd, err := root.ExecuteC()
	if err != nil {
		if !errors.Is(err, errAlreadyHandled) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), enhanceUnknownError(err, root, targetCmd))
		}
		return err
	}
	return nil
}

// enhanceUnknownError adds "did you mean?" suggestions to unknown command/flag errors.
func enhanceUnknownError(err error, root *cobra.Command, targetCmd *cobra.Command) string {
	msg := err.Error()

	if strings.Contains(msg, "unknown command") {
		if unknown := extractQuoted(msg); unknown != "" {
			var names []string
			for _, c := range root.Commands() {
				if c.IsAvailableCommand() || c.Name() == "help" {
					names = append(names, c.Name())
					names = append(names, c.Aliases...)
				}
			}
			if suggestion := suggestCommand(unknown, names); suggestion != "" {
				return fmt.Sprintf("%s\n\nDid you mean %q?", msg, suggestion)
			}
		}
		return msg
	}

	if strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag") {
		unknown := extractFlag(msg)
		if unknown == "" {
			return msg
		}
		seen := make(map[string]bool)
		var names []string
		add := func(fs *pflag.FlagSet) {
			fs.VisitAll(func(f *pflag.Flag) {
				if f.Hidden {
					return
				}
				for _, name := range []string{"--" + f.Name, shorthand(f)} {
					if name != "" && !seen[name] {
						seen[name] = true
						names = append(names, name)
					}
				}
			})
		}
		cmd := targetCmd
		if cmd == nil {
			cmd = root
		}
		add(cmd.Flags())
		add(cmd.InheritedFlags())
		helpCmd := cmd.CommandPath() + " --help"
		if suggestion := suggestFlag(unknown, names); suggestion != "" {
			return fmt.Sprintf("%s\n\nDid you mean %q?\nRun %q to see supported flags.", msg, suggestion, helpCmd)
		}
		return fmt.Sprintf("%s\n\nRun %q to see supported flags.", msg, helpCmd)
	}

	return msg
}

func shorthand(f *pflag.Flag) string {
	if f.Shorthand == "" {
		return ""
	}
	return "-" + f.Shorthand
}

// extractQuoted extracts the first double-quoted substring from s.
func extractQuoted(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// extractFlag extracts a flag name (e.g., "--foo" or "-x") from an error message.
func extractFlag(s string) string {
	idx := strings.Index(s, "--")
	if idx < 0 {
		// "unknown shorthand flag: 'x' in -x"
		idx = strings.LastIndex(s, " -")
		if idx < 0 {
			return ""
		}
		idx++
	}
	rest := s[idx:]
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimRight(rest, ".,;:!?\"'")
	if len(rest) < 2 {
		return ""
	}
	return rest
}

func loadTemplate(value string) (string, error) {
	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}
