package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user",
	Long: `Sign an access and refresh token pair with JWT_SECRET. The user is not
looked up; the token carries exactly the id, email and role given.`,
	Example: `  invoicectl token --user-id 5f0c... --role admin`,
	Args:    cobra.NoArgs,
	RunE:    runToken,
}

var (
	tokenUserID string
	tokenEmail  string
	tokenRole   string
)

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User ID (required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleOwner), "Role claim: owner, admin or member")
	_ = tokenCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	role := domain.Role(tokenRole)
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember:
	default:
		return fmt.Errorf("unknown role %q", tokenRole)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	authService := service.NewAuthService(service.AuthServiceConfig{
		JWTSecret:           cfg.JWTSecret,
		JWTAccessExpiration: cfg.JWTAccessExpiration,
	})

	tokens, err := authService.GenerateTokens(&domain.User{ID: tokenUserID, Email: tokenEmail, Role: role})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "access_token:  %s\nrefresh_token: %s\nexpires_in:    %ds\n",
		tokens.AccessToken, tokens.RefreshToken, tokens.ExpiresIn)
	return nil
}
