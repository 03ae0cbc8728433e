package cmd

import (
	"fmt"
	"os"

	"equipment-manager/pkg/config"
	applogger "equipment-manager/pkg/logger"

	"github.com/spf13/cobra"
)

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Выгрузить реестр оборудования в xlsx",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.New()
		logger := applogger.NewLogger()
		ctx := cmd.Context()

		out, _ := cmd.Flags().GetString("out")
		comps, err := buildComponents(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer comps.Close()

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("создание файла %s: %w", out, err)
		}
		if err := comps.service.Export(ctx, f); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	},
}

func init() {
	ExportCmd.Flags().String("out", "equipments.xlsx", "Файл для выгрузки")
}
