package cli

import (
	"github.com/spf13/cobra"

	"github.com/vnoc/incident-tracker/internal/persistence"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations",
	Long:  `Applies every .sql file in the migrations directory in file name order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, pg, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pg.Close()
		defer logger.Sync() //nolint:errcheck

		dir := cfg.Postgres.MigrationsDir
		if migrationsDir != "" {
			dir = migrationsDir
		}
		return persistence.RunMigrations(ctx, pg.PoolHandle(), dir, logger)
	},
}

func init() {
	migrateCmd.Flags().StringVarP(&migrationsDir, "dir", "d", "", "migrations directory (default POSTGRES_MIGRATIONS_DIR)")
	rootCmd.AddCommand(migrateCmd)
}
