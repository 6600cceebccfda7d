package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridwanfathin/invoicing-service/internal/database"
	"github.com/ridwanfathin/invoicing-service/internal/domain"
)

// PostgresUserRepository implements UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *pgxpool.Pool) UserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `
	u.id::text, u.email, u.name, u.role, u.is_active, u.created_at, u.updated_at,
	COALESCE((SELECT tm.team_id::text FROM team_members tm WHERE tm.user_id = u.id LIMIT 1), '')`

func scanUser(row pgx.Row, extra ...any) (*domain.User, error) {
	user := &domain.User{}
	var role string
	dest := append([]any{
		&user.ID, &user.Email, &user.Name, &role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &user.TeamID,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return user, nil
}

// CreateUserWithPassword creates a new user with password hash. A user with
// a TeamID is added to that team; the team row is created when missing.
func (r *PostgresUserRepository) CreateUserWithPassword(ctx context.Context, user *domain.User) error {
	err := database.ExecuteTransaction(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, name, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id::text, created_at, updated_at
		`, user.Email, user.Name, user.PasswordHash, string(user.Role), user.IsActive).Scan(
			&user.ID, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return err
		}

		if user.TeamID == "" {
			return nil
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO teams (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING
		`, user.TeamID, user.Name+"'s team"); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, user.TeamID, user.ID)
		return err
	})
	if err != nil {
		return &RepositoryError{Op: "create_user", Err: fmt.Errorf("failed to create user with password: %w", err)}
	}
	return nil
}

// GetUserByID retrieves a user by their ID
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &RepositoryError{Op: "get_user", Err: domain.NewNotFoundError("user %s", userID)}
		}
		return nil, &RepositoryError{Op: "get_user", Err: fmt.Errorf("failed to get user by ID: %w", err)}
	}
	return user, nil
}

// GetUserByEmailWithPassword retrieves a user by their email including password hash
func (r *PostgresUserRepository) GetUserByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	var hash string
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+`, COALESCE(u.password_hash, '') FROM users u WHERE LOWER(u.email) = LOWER($1)`, email)
	user, err := scanUser(row, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &RepositoryError{Op: "get_user_by_email", Err: domain.NewNotFoundError("user %s", email)}
		}
		return nil, &RepositoryError{Op: "get_user_by_email", Err: fmt.Errorf("failed to get user by email with password: %w", err)}
	}
	user.PasswordHash = hash
	return user, nil
}

// GetTeamMemberIDs returns the ids of all members of the user's teams
func (r *PostgresUserRepository) GetTeamMemberIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT other.user_id::text
		FROM team_members mine
		JOIN team_members other ON other.team_id = mine.team_id
		WHERE mine.user_id = $1
	`, userID)
	if err != nil {
		return nil, &RepositoryError{Op: "get_team_members", Err: fmt.Errorf("failed to query team members: %w", err)}
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &RepositoryError{Op: "get_team_members", Err: fmt.Errorf("failed to scan team members: %w", err)}
	}
	if len(ids) == 0 {
		return []string{userID}, nil
	}
	return ids, nil
}

// GetBusinessProfile retrieves the business profile of a user
func (r *PostgresUserRepository) GetBusinessProfile(ctx context.Context, userID string) (*domain.BusinessProfile, error) {
	p := &domain.BusinessProfile{}
	err := r.db.QueryRow(ctx, `
		SELECT user_id::text, business_name, email, phone, address, tax_id
		FROM business_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.BusinessName, &p.Email, &p.Phone, &p.Address, &p.TaxID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &RepositoryError{Op: "get_business_profile", Err: domain.NewNotFoundError("business profile of %s", userID)}
		}
		return nil, &RepositoryError{Op: "get_business_profile", Err: fmt.Errorf("failed to get business profile: %w", err)}
	}
	return p, nil
}

// UpsertBusinessProfile creates or replaces a business profile
func (r *PostgresUserRepository) UpsertBusinessProfile(ctx context.Context, profile *domain.BusinessProfile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO business_profiles (user_id, business_name, email, phone, address, tax_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			tax_id = EXCLUDED.tax_id
	`, profile.UserID, profile.BusinessName, profile.Email, profile.Phone, profile.Address, profile.TaxID)
	if err != nil {
		return &RepositoryError{Op: "upsert_business_profile", Err: fmt.Errorf("failed to upsert business profile: %w", err)}
	}
	return nil
}
