package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/model"
	"github.com/ridwanfathin/invoicing-service/internal/repository"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

// HTTP status codes as constants for consistency
const (
	StatusOK                  = http.StatusOK
	StatusCreated             = http.StatusCreated
	StatusNoContent           = http.StatusNoContent
	StatusBadRequest          = http.StatusBadRequest
	StatusUnauthorized        = http.StatusUnauthorized
	StatusForbidden           = http.StatusForbidden
	StatusNotFound            = http.StatusNotFound
	StatusConflict            = http.StatusConflict
	StatusInternalServerError = http.StatusInternalServerError
	StatusBadGateway          = http.StatusBadGateway
)

// Common error messages
const (
	ErrInvalidInput       = "Invalid input format"
	ErrInvalidID          = "Invalid ID provided"
	ErrInternalServer     = "Internal server error"
	ErrInvalidQueryParams = "Invalid query parameters"
	ErrNotAuthenticated   = "User not authenticated"
)

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, message string, details ...model.ErrorDetail) {
	response := model.ErrorResponse{
		Status:  http.StatusText(statusCode),
		Message: message,
		Details: details,
	}
	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, StatusBadRequest, message, details...)
}

// respondUnauthorized sends a 401 Unauthorized response
func respondUnauthorized(c *gin.Context, message string, details ...model.ErrorDetail) {
	respondWithError(c, StatusUnauthorized, message, details...)
}

// respondForbidden sends a 403 Forbidden response
func respondForbidden(c *gin.Context, message string) {
	respondWithError(c, StatusForbidden, message)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, StatusNotFound, message)
}

// respondConflict sends a 409 Conflict response
func respondConflict(c *gin.Context, message string) {
	respondWithError(c, StatusConflict, message)
}

// respondInternalServerError sends a 500 Internal Server Error response
func respondInternalServerError(c *gin.Context, message string) {
	respondWithError(c, StatusInternalServerError, message)
}

// respondSuccess sends a standardized success response with data
func respondSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// respondCreated sends a 201 Created response with data
func respondCreated(c *gin.Context, data interface{}) {
	respondSuccess(c, StatusCreated, data)
}

// respondOK sends a 200 OK response with data
func respondOK(c *gin.Context, data interface{}) {
	respondSuccess(c, StatusOK, data)
}

// respondNoContent sends a 204 No Content response
func respondNoContent(c *gin.Context) {
	c.Status(StatusNoContent)
}

// newErrorDetail creates a new error detail
func newErrorDetail(field, message string) model.ErrorDetail {
	return model.ErrorDetail{
		Field:   field,
		Message: message,
	}
}

// publicMessage strips the operation prefixes added by the service and
// repository layers
func publicMessage(err error) string {
	for {
		switch e := err.(type) {
		case *service.InvoiceServiceError:
			if e.Err == nil {
				return e.Error()
			}
			err = e.Err
		case *repository.RepositoryError:
			if e.Err == nil {
				return e.Error()
			}
			err = e.Err
		default:
			return err.Error()
		}
	}
}

// respondServiceError maps a service error onto an HTTP status. Broken
// conversion preconditions are client errors (400); only a conversion lost
// to a concurrent request is a 409.
func respondServiceError(c *gin.Context, operation string, err error) {
	message := publicMessage(err)

	switch {
	case errors.Is(err, domain.ErrConversionRace):
		respondConflict(c, message)
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		respondBadRequest(c, message)
	case errors.Is(err, domain.ErrUnauthorized):
		respondUnauthorized(c, message)
	case errors.Is(err, domain.ErrForbidden):
		respondForbidden(c, message)
	case errors.Is(err, domain.ErrNotFound):
		respondNotFound(c, message)
	default:
		logError(c, operation, err, nil)
		respondInternalServerError(c, ErrInternalServer)
	}
}
