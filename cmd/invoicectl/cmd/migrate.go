package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridwanfathin/invoicing-service/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	Long: `Apply every embedded SQL migration to the database named by
POSTGRES_DB_URL, in file name order. Migrations are idempotent.`,
	Example: `  # Apply migrations
  invoicectl migrate

  # Show the migrations without applying them
  invoicectl migrate --list`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var migrateList bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "List the embedded migrations and exit")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateList {
		names, err := database.MigrationNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("POSTGRES_DB_URL is not set")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
	return nil
}
