package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/logger"
	"github.com/ridwanfathin/invoicing-service/internal/middleware"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

// currentActor returns the authenticated caller set by the auth middleware
func currentActor(c *gin.Context) (service.Actor, bool) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return service.Actor{}, false
	}
	return service.Actor{
		UserID: userID,
		Role:   domain.Role(c.GetString(middleware.ContextUserRole)),
	}, true
}

// getPathParam retrieves a path parameter and validates it's not empty
func getPathParam(c *gin.Context, paramName string) (string, error) {
	value := c.Param(paramName)
	if value == "" {
		return "", fmt.Errorf("%s is required", paramName)
	}
	return value, nil
}

// getQueryInt retrieves an integer query parameter with a default value
func getQueryInt(c *gin.Context, paramName string, defaultValue int) (int, error) {
	valueStr := c.Query(paramName)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}

	return value, nil
}

// parseDate parses a date string in YYYY-MM-DD format
func parseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, nil
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD")
	}

	return date, nil
}

// bindJSON binds JSON request body to a struct
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return fmt.Errorf("invalid JSON format: %v", err)
	}
	return nil
}

// validatePagination validates and returns pagination parameters
func validatePagination(page, limit int) error {
	if page < 1 {
		return fmt.Errorf("page must be greater than 0")
	}
	if limit < 1 || limit > 100 {
		return fmt.Errorf("limit must be between 1 and 100")
	}
	return nil
}

// logError logs a failed request with the request-scoped logger
func logError(c *gin.Context, event string, err error, fields map[string]interface{}) {
	log := logger.WithContext(c.Request.Context())
	log.Error().
		Err(err).
		Str("event", event).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Fields(fields).
		Msg("Request failed")
}
