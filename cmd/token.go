package cmd

import (
	"errors"
	"fmt"

	"equipment-manager/pkg/config"
	"equipment-manager/pkg/service"

	"github.com/spf13/cobra"
)

var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Выпустить токен доступа для отладки",
	Long:  `Command that exists and should be used only for development purposes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		if email == "" {
			return errors.New("флаг --email обязателен")
		}
		cfg := config.New()
		token, err := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL).GenerateToken(email, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	TokenCmd.Flags().String("email", "", "Email редактора")
	TokenCmd.Flags().String("name", "", "Имя редактора для истории")
}
