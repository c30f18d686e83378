package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maximgrinin/todolist/internal/db"
	"github.com/maximgrinin/todolist/internal/logutil"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			cfg := dbConfigFromViper()
			gdb, err := db.Open(cfg)
			if err != nil {
				return err
			}
			if err := db.AutoMigrate(gdb); err != nil {
				return err
			}
			logger.Info("migrate_done", "driver", cfg.Driver)
			return nil
		},
	}
	return cmd
}
