package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artlens/artlens/internal/api"
	"github.com/artlens/artlens/internal/config"
	"github.com/artlens/artlens/internal/iocontext"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage Artsy and Imagga credentials",
		Long:    "Store, inspect and remove the Artsy X-Xapp-Token and the Imagga authorization token kept in your OS keychain.",
	}
	cmd.AddCommand(newAuthSetCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthClearCmd())
	return cmd
}

func newAuthSetCmd() *cobra.Command {
	var (
		artsyToken   string
		imaggaToken  string
		imaggaKey    string
		imaggaSecret string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save tokens to the keychain",
		Long: strings.TrimSpace(`
Save API credentials to your OS keychain.

The Imagga credential is either a ready-made Basic token (--imagga-token) or
an API key and secret pair, which is encoded for you. Values not given as
flags are prompted for when stdin is a terminal. Empty answers keep the
stored value.
`),
		Example: strings.TrimSpace(`
  # Prompt for both tokens
  artlens auth set

  # Non-interactive
  artlens auth set --artsy-token XAPP --imagga-key KEY --imagga-secret SECRET
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if (imaggaKey == "") != (imaggaSecret == "") {
				return fmt.Errorf("--imagga-key and --imagga-secret must be given together")
			}
			if imaggaKey != "" && imaggaToken != "" {
				return fmt.Errorf("--imagga-token conflicts with --imagga-key")
			}
			if imaggaKey != "" {
				imaggaToken = api.BasicToken(imaggaKey, imaggaSecret)
			}

			if artsyToken == "" && imaggaToken == "" {
				if !isInteractive() {
					return fmt.Errorf("--artsy-token or --imagga-token is required when stdin is not a terminal")
				}
				reader := bufio.NewReader(iocontext.GetIO(cmd.Context()).In)
				var err error
				if artsyToken, err = promptLine(cmd, reader, "Artsy X-Xapp-Token: "); err != nil {
					return err
				}
				if imaggaToken, err = promptLine(cmd, reader, "Imagga token (Basic ...): "); err != nil {
					return err
				}
				if artsyToken == "" && imaggaToken == "" {
					return fmt.Errorf("no credentials entered")
				}
			}

			if err := config.SaveSecrets(config.Secrets{ArtsyToken: artsyToken, ImaggaToken: imaggaToken}); err != nil {
				return err
			}

			saved := map[string]bool{"artsy": artsyToken != "", "imagga": imaggaToken != ""}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"saved": saved})
			}
			for _, svc := range []string{"artsy", "imagga"} {
				if saved[svc] {
					printIfNotQuiet(cmd, "Saved %s credential\n", serviceLabel(svc))
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&artsyToken, "artsy-token", "", "Artsy X-Xapp-Token")
	cmd.Flags().StringVar(&imaggaToken, "imagga-token", "", "Imagga authorization value (\"Basic ...\" or the bare encoded pair)")
	cmd.Flags().StringVar(&imaggaKey, "imagga-key", "", "Imagga API key")
	cmd.Flags().StringVar(&imaggaSecret, "imagga-secret", "", "Imagga API secret")
	flagAlias(cmd.Flags(), "artsy-token", "at")
	flagAlias(cmd.Flags(), "imagga-token", "it")
	return cmd
}

type credentialStatus struct {
	Configured bool   `json:"configured"`
	Token      string `json:"token,omitempty"`
	Source     string `json:"source"`
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which credentials are configured",
		Long:  "Display the effective credentials and where they come from. Tokens are masked.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			status := map[string]credentialStatus{
				"artsy":  newCredentialStatus(cfg.ArtsyToken, cfg.Source("artsy_token")),
				"imagga": newCredentialStatus(strings.TrimPrefix(cfg.ImaggaToken, "Basic "), cfg.Source("imagga_token")),
			}

			if isJSON(cmd) {
				return printJSON(cmd, status)
			}

			f := newFormatter(cmd)
			f.StartTable([]string{"SERVICE", "CONFIGURED", "TOKEN", "SOURCE"})
			for _, svc := range []string{"artsy", "imagga"} {
				s := status[svc]
				token := s.Token
				if token == "" {
					token = "-"
				}
				f.Row(serviceLabel(svc), fmt.Sprintf("%t", s.Configured), token, s.Source)
			}
			return f.EndTable()
		}),
	}
}

func newCredentialStatus(token, source string) credentialStatus {
	token = strings.TrimSpace(token)
	if token == "" {
		return credentialStatus{Source: "none"}
	}
	return credentialStatus{Configured: true, Token: maskToken(token), Source: source}
}

func newAuthClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Aliases: []string{"logout"},
		Short:   "Remove stored tokens from the keychain",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if _, err := config.LoadSecrets(); errors.Is(err, config.ErrNotConfigured) {
				printIfNotQuiet(cmd, "No stored credentials.\n")
				return nil
			}
			if err := config.DeleteSecrets(); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"cleared": true})
			}
			printIfNotQuiet(cmd, "Credentials removed.\n")
			return nil
		}),
	}
}

// maskToken masks a token for display, showing only the first and last 4 characters
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
