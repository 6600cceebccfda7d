package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/model"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

// Context keys holding the authenticated caller
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
	ContextUserRole  = "userRole"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.Claims, error)
}

func abortWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, model.ErrorResponse{
		Status:  http.StatusText(statusCode),
		Message: message,
	})
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *service.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserEmail, claims.Email)
	c.Set(ContextUserRole, string(claims.Role))
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Invalid authorization header format. Expected 'Bearer <token>'")
			return
		}

		claims, err := validator.ValidateAccessToken(token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the caller when a valid token is present and
// lets anonymous requests through otherwise
func OptionalAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := validator.ValidateAccessToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireAnyRole rejects callers whose role is not listed. It must run after
// AuthMiddleware.
func RequireAnyRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserID) == "" {
			abortWithError(c, http.StatusUnauthorized, "User not authenticated")
			return
		}
		if !slices.Contains(roles, domain.Role(c.GetString(ContextUserRole))) {
			abortWithError(c, http.StatusForbidden, "Insufficient role for this operation")
			return
		}
		c.Next()
	}
}
