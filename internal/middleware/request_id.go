package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ridwanfathin/invoicing-service/internal/logger"
)

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

// ContextRequestID is the gin context key of the request ID
const ContextRequestID = "request_id"

// RequestID tags each request with an ID, taken from the incoming header when
// present, and attaches a logger carrying it to the request context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(ContextRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		l := logger.WithRequestID(requestID)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()
	}
}
