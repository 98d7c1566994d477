package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	mongostore "github.com/toylibrary/lending-platform/internal/infrastructure/db/mongo"
	"github.com/toylibrary/lending-platform/internal/pkg/config"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data into the database",
	Long: `Provisions a demo library with three accounts:

  host@example.com      (host)
  borrower@example.com  (borrower)
  admin@example.com     (super-user)

All demo accounts use the password "password123". Running seed against a
database that already holds the demo host is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(ctx) }()

		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		if err := mongostore.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		fmt.Println("demo data loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
