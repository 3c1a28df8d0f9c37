package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"campus-engage/internal/common/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		zapLog, log := newLogger(cfg)
		defer func() { _ = zapLog.Sync() }()

		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()

		ctx := cmd.Context()
		if err := retryWithBackoff(ctx, pg.Ping, connectRetries, connectRetryDelay, log, "Postgres connection"); err != nil {
			return err
		}

		applied, err := database.Migrate(ctx, pg.DB)
		if err != nil {
			return err
		}
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
		}
		log.Info("migrations complete", map[string]interface{}{"applied": len(applied)})
		return nil
	},
}
