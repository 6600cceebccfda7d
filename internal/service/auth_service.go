package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/repository"
)

// Common errors
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// AuthService handles authentication operations
type AuthService interface {
	// Email/Password authentication
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)

	// JWT operations
	GenerateTokens(user *domain.User) (*TokenPair, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error)

	// User operations
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// RegisterRequest carries the fields of a new account
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
	TeamID   string
}

// AuthResponse contains authentication response data
type AuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"` // seconds
}

// TokenPair contains access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds
}

// Claims represents JWT claims
type Claims struct {
	UserID    string      `json:"userId"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	TokenType string      `json:"tokenType"`
	jwt.RegisteredClaims
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// authService implements AuthService
type authService struct {
	userRepo             repository.UserRepository
	jwtSecret            []byte
	jwtAccessExpiration  time.Duration
	jwtRefreshExpiration time.Duration
	now                  func() time.Time
}

// AuthServiceConfig holds configuration for auth service
type AuthServiceConfig struct {
	UserRepo             repository.UserRepository
	JWTSecret            string
	JWTAccessExpiration  time.Duration
	JWTRefreshExpiration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(config AuthServiceConfig) AuthService {
	if config.JWTAccessExpiration <= 0 {
		config.JWTAccessExpiration = 24 * time.Hour
	}
	if config.JWTRefreshExpiration <= 0 {
		config.JWTRefreshExpiration = 7 * 24 * time.Hour
	}

	return &authService{
		userRepo:             config.UserRepo,
		jwtSecret:            []byte(config.JWTSecret),
		jwtAccessExpiration:  config.JWTAccessExpiration,
		jwtRefreshExpiration: config.JWTRefreshExpiration,
		now:                  time.Now,
	}
}

// Register creates a user with a bcrypt password hash
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	role := req.Role
	if role == "" {
		role = domain.RoleOwner
	}
	switch role {
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleMember:
	default:
		return nil, domain.NewValidationError("unknown role %q", role)
	}

	if _, err := s.userRepo.GetUserByEmailWithPassword(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Name:         req.Name,
		PasswordHash: string(hashedPassword),
		Role:         role,
		TeamID:       req.TeamID,
		IsActive:     true,
	}
	if err := s.userRepo.CreateUserWithPassword(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Login authenticates a user with email and password
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.userRepo.GetUserByEmailWithPassword(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	user.PasswordHash = ""

	tokens, err := s.GenerateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}, nil
}

func (s *authService) signToken(user *domain.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// GenerateTokens generates access and refresh tokens carrying the user's role
func (s *authService) GenerateTokens(user *domain.User) (*TokenPair, error) {
	if len(s.jwtSecret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}

	accessToken, err := s.signToken(user, tokenTypeAccess, s.jwtAccessExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.signToken(user, tokenTypeRefresh, s.jwtRefreshExpiration)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtAccessExpiration.Seconds()),
	}, nil
}

func (s *authService) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ValidateAccessToken validates and parses an access token
func (s *authService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("invalid token type %q", claims.TokenType)
	}
	return claims, nil
}

// RefreshAccessToken issues a new token pair from a refresh token. The role
// is reloaded so role changes apply on refresh.
func (s *authService) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, fmt.Errorf("invalid refresh token: wrong token type")
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return s.GenerateTokens(user)
}

// GetUserByID retrieves a user by ID
func (s *authService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}
