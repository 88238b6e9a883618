package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnoc/incident-tracker/internal/config"
	"github.com/vnoc/incident-tracker/internal/observability"
	"github.com/vnoc/incident-tracker/internal/persistence"
)

var rootCmd = &cobra.Command{
	Use:   "ttctl",
	Short: "Operations tooling for the VNOC incident tracker",
	Long: `ttctl runs maintenance tasks against the incident tracker backend:
applying schema migrations, importing seed tickets and minting bearer
tokens for local testing. Settings come from the same environment
variables (and .env file) the API server reads.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads the full configuration and opens the Postgres pool shared by
// database subcommands.
func connect(ctx context.Context) (*config.Config, *persistence.Postgres, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Postgres.DSN == "" {
		return nil, nil, nil, fmt.Errorf("POSTGRES_DSN is required for this command")
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, nil, err
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return cfg, pg, logger, nil
}
