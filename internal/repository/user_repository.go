package repository

import (
	"context"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// User operations
	CreateUserWithPassword(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmailWithPassword(ctx context.Context, email string) (*domain.User, error)

	// GetTeamMemberIDs returns the ids of every member of the user's team,
	// the user included. A user without a team resolves to just themselves.
	GetTeamMemberIDs(ctx context.Context, userID string) ([]string, error)

	// Business profile operations
	GetBusinessProfile(ctx context.Context, userID string) (*domain.BusinessProfile, error)
	UpsertBusinessProfile(ctx context.Context, profile *domain.BusinessProfile) error
}
