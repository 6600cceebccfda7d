package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ridwanfathin/invoicing-service/internal/database"
	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/repository"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user with a bcrypt-hashed password",
	Long: `Create a user in the database named by POSTGRES_DB_URL. Users sharing a
--team see each other's invoices; owners and admins may update, convert and
delete them.`,
	Example: `  invoicectl user create --email ama@acme.test --password s3cret --name Ama --team acme --role admin`,
	Args:    cobra.NoArgs,
	RunE:    runUserCreate,
}

var (
	userEmail    string
	userPassword string
	userName     string
	userRole     string
	userTeam     string
)

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email (required)")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password (required)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(domain.RoleOwner), "Role: owner, admin or member")
	userCreateCmd.Flags().StringVar(&userTeam, "team", "", "Team ID")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("POSTGRES_DB_URL is not set")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:  repository.NewPostgresUserRepository(db.GetPool()),
		JWTSecret: cfg.JWTSecret,
	})

	user, err := authService.Register(ctx, service.RegisterRequest{
		Email:    userEmail,
		Password: userPassword,
		Name:     userName,
		Role:     domain.Role(userRole),
		TeamID:   userTeam,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s, role %s)\n", user.ID, user.Email, user.Role)
	return nil
}
