package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/toylibrary/lending-platform/internal/core/domain"
	mongostore "github.com/toylibrary/lending-platform/internal/infrastructure/db/mongo"
	"github.com/toylibrary/lending-platform/internal/pkg/config"
)

var superuserCmd = &cobra.Command{
	Use:   "superuser <email>",
	Short: "Create a platform administrator account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.ToLower(strings.TrimSpace(args[0]))
		if email == "" {
			return errors.New("email is required")
		}

		fullName, err := cmd.Flags().GetString("name")
		if err != nil {
			return err
		}
		if fullName == "" {
			fullName = "Platform Administrator"
		}

		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if len(password) < 8 {
			return errors.New("password must be at least 8 characters")
		}

		hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

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

		now := time.Now().UTC()
		users := mongostore.NewUserRepository(db)
		if _, err := users.Create(ctx, &domain.User{
			ID:           uuid.NewString(),
			Email:        email,
			FullName:     fullName,
			PasswordHash: string(hash),
			Role:         domain.RoleSuperUser,
			Status:       domain.UserActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return fmt.Errorf("create super-user: %w", err)
		}

		fmt.Printf("super-user %s created\n", email)
		return nil
	},
}

func init() {
	superuserCmd.Flags().String("name", "", "full name for the account")
	rootCmd.AddCommand(superuserCmd)
}
