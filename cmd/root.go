package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:   "equipment-manager",
		Short: "Реестр оборудования: идентичность, сохранение и связанные активы",
	}
	rootCmd.AddCommand(ServeCmd, MigrateCmd, SeedCmd, ExportCmd, TokenCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
