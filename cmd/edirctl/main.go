package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

var databaseURL string

func main() {
	rootCmd := &cobra.Command{
		Use:     "edirctl",
		Short:   "Maintenance tool for the EdirPay ledger",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database", "", "postgres DSN (default $DATABASE_URL)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(hashPasswordCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
