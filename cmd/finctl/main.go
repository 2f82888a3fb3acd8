package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/finboard/cmd/finctl/cmd"
	"github.com/templui/finboard/internal/logger"
)

func main() {
	flush := logger.Init(true, "", "cli")
	defer flush()

	rootCmd := &cobra.Command{
		Use:          "finctl",
		Short:        "Administration tools for finboard",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.CreateAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
