package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RefreshToken generates a new access token from a refresh token
// @Summary Refresh access token
// @Description Generate a new token pair using a refresh token. The role claim is reloaded from the user record.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token"
// @Success 200 {object} service.TokenPair "New tokens"
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 401 {object} model.ErrorResponse "Invalid refresh token"
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, "Refresh token is required")
		return
	}

	tokens, err := h.authService.RefreshAccessToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondUnauthorized(c, "Invalid or expired refresh token")
		return
	}

	respondOK(c, tokens)
}

// GetCurrentUser returns the current authenticated user
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User "User information"
// @Failure 401 {object} model.ErrorResponse "Unauthorized"
// @Failure 404 {object} model.ErrorResponse "User not found"
// @Router /v1/auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		respondUnauthorized(c, ErrNotAuthenticated)
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, "User not found")
			return
		}
		logError(c, "get_current_user_failed", err, nil)
		respondInternalServerError(c, "Failed to get user information")
		return
	}

	respondOK(c, user)
}

// Logout handles user logout
// @Summary Logout
// @Description Tokens are stateless; the client discards them
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	respondOK(c, gin.H{
		"message": "Logout successful",
	})
}

// Register handles user registration with email and password
// @Summary Register a new user
// @Description Create a new account. Self-registered users own their team.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} service.AuthResponse "Registration successful"
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 409 {object} model.ErrorResponse "User already exists"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		TeamID:   req.TeamID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			respondConflict(c, "User with this email already exists")
		case errors.Is(err, domain.ErrValidation):
			respondBadRequest(c, err.Error())
		default:
			logError(c, "registration_failed", err, map[string]interface{}{
				"email": req.Email,
			})
			respondInternalServerError(c, "Failed to register user")
		}
		return
	}

	tokens, err := h.authService.GenerateTokens(user)
	if err != nil {
		logError(c, "registration_tokens_failed", err, nil)
		respondInternalServerError(c, "Failed to register user")
		return
	}

	respondCreated(c, service.AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

// Login handles user login with email and password
// @Summary Login with email and password
// @Description Authenticate a user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} service.AuthResponse "Login successful"
// @Failure 400 {object} model.ErrorResponse "Bad request"
// @Failure 401 {object} model.ErrorResponse "Invalid credentials"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("body", err.Error()))
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondUnauthorized(c, "Invalid email or password")
			return
		}
		logError(c, "login_failed", err, map[string]interface{}{
			"email": req.Email,
		})
		respondInternalServerError(c, "Failed to login")
		return
	}

	respondOK(c, authResponse)
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/logout", h.Logout)

		auth.GET("/me", authMiddleware, h.GetCurrentUser)
	}
}

// RefreshTokenRequest represents a refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	TeamID   string `json:"teamId,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
