package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnoc/incident-tracker/internal/repository"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import seed tickets into Postgres",
	Long: `Reads a JSON array of incident reports and inserts the ones whose
ticket number is not stored yet. Existing tickets are left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, pg, logger, err := connect(ctx)
		if err != nil {
			return err
		}
		defer pg.Close()
		defer logger.Sync() //nolint:errcheck

		path := cfg.Storage.SeedFile
		if seedFile != "" {
			path = seedFile
		}
		tickets, err := repository.LoadSeedFile(path)
		if err != nil {
			return err
		}

		store := repository.NewPostgresStore(pg.PoolHandle())
		inserted, err := store.Tickets.Seed(ctx, tickets)
		if err != nil {
			return err
		}
		logger.Info("seed complete", zap.String("path", path), zap.Int("read", len(tickets)), zap.Int("inserted", inserted))
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d of %d tickets\n", inserted, len(tickets))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed file (default SEED_FILE)")
	rootCmd.AddCommand(seedCmd)
}
