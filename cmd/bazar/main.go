package main

import (
	"os"

	"github.com/boibazar/boibazar/cmd/bazar/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bazar",
		Short:         "Operations tools for boibazar",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.CSSCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.BanCmd())
	rootCmd.AddCommand(cmd.UnbanCmd())
	rootCmd.AddCommand(cmd.AdminCmd())
	rootCmd.AddCommand(cmd.CleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
