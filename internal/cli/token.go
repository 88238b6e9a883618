package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnoc/incident-tracker/internal/auth"
	"github.com/vnoc/incident-tracker/internal/config"
	"github.com/vnoc/incident-tracker/internal/domain"
)

var tokenOpts struct {
	username string
	email    string
	role     string
	ttl      time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token",
	Long: `Signs an access token with AUTH_JWT_SECRET so the API can be exercised
without the upstream identity provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(tokenOpts.username) == "" {
			return fmt.Errorf("--username is required")
		}
		authCfg := config.LoadAuth()
		ttl := authCfg.AccessTokenTTL()
		if tokenOpts.ttl > 0 {
			ttl = tokenOpts.ttl
		}
		tokens := auth.NewTokenManager(authCfg.JWTSecret, authCfg.Issuer, ttl)
		signed, expires, err := tokens.GenerateToken(domain.Principal{
			Username: tokenOpts.username,
			Email:    tokenOpts.email,
			Role:     tokenOpts.role,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, signed)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenOpts.username, "username", "u", "", "operator username recorded on mutations")
	tokenCmd.Flags().StringVarP(&tokenOpts.email, "email", "e", "", "operator email")
	tokenCmd.Flags().StringVarP(&tokenOpts.role, "role", "r", "Field Engineer", "operator role")
	tokenCmd.Flags().DurationVar(&tokenOpts.ttl, "ttl", 0, "token lifetime (default AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	rootCmd.AddCommand(tokenCmd)
}
