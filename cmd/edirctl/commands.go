package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	config "github.com/anjiri1684/edirpay/configs"
	"github.com/anjiri1684/edirpay/database"
	"github.com/anjiri1684/edirpay/services"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openLedger() (*services.Ledger, error) {
	dsn := databaseURL
	if dsn == "" {
		dsn = config.Config("DATABASE_URL")
	}
	if dsn == "" {
		return nil, errors.New("no database: set DATABASE_URL or pass --database")
	}
	db, err := database.Open(dsn)
	if err != nil {
		return nil, err
	}
	return services.NewLedger(db), nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			if err := database.Migrate(ledger.DB()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Database migrated")
			return nil
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the overall ledger summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			s, err := services.NewReports(ledger).Summary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), services.FormatSummary(s))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "export [submissions|members]",
		Short:     "Export a table as CSV",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"submissions", "members"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := openLedger()
			if err != nil {
				return err
			}
			return runExport(cmd, ledger.DB(), args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, db *gorm.DB, table, out string) error {
	var w io.Writer = cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	reports := services.NewReports(services.NewLedger(db))
	switch table {
	case "submissions":
		return reports.ExportSubmissionsCSV(cmd.Context(), w)
	case "members":
		return reports.ExportMembersCSV(cmd.Context(), w)
	default:
		return fmt.Errorf("unknown table %q", table)
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for DASHBOARD_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}
