package cmd

import (
	"errors"

	"equipment-manager/pkg/config"
	applogger "equipment-manager/pkg/logger"
	"equipment-manager/seeders"

	"github.com/spf13/cobra"
)

var SeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Наполнить инвентарную коллекцию активов",
	Long:  `Без флагов записывает стартовый набор активов; с --xlsx импортирует активы из книги.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.New()
		logger := applogger.NewLogger()
		ctx := cmd.Context()

		comps, err := buildComponents(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer comps.Close()
		if comps.equipments == nil {
			return errors.New("сидер требует доступное основное хранилище")
		}

		path, _ := cmd.Flags().GetString("xlsx")
		if path != "" {
			return seeders.SeedAssetsFromXLSX(ctx, comps.assets, path, logger)
		}
		return seeders.SeedAssets(ctx, comps.assets, logger)
	},
}

func init() {
	SeedCmd.Flags().String("xlsx", "", "Путь к книге xlsx с активами")
}
