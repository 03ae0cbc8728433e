package cmd

import (
	"fmt"

	"equipment-manager/internal/database"
	"equipment-manager/pkg/config"
	applogger "equipment-manager/pkg/logger"

	"github.com/spf13/cobra"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции БД",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.New()
		logger := applogger.NewLogger()
		if err := database.Migrate(cmd.Context(), cfg.Postgres.DSN, logger); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		return nil
	},
}
