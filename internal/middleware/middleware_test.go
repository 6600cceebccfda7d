package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator map[string]*service.Claims

func (s stubValidator) ValidateAccessToken(token string) (*service.Claims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

var validator = stubValidator{
	"owner-token":  {UserID: "owner", Email: "owner@acme.test", Role: domain.RoleOwner},
	"member-token": {UserID: "member", Email: "member@acme.test", Role: domain.RoleMember},
}

func newAuthRouter() *gin.Engine {
	router := gin.New()
	router.GET("/me", AuthMiddleware(validator), func(c *gin.Context) {
		c.String(http.StatusOK, "%s|%s|%s", c.GetString(ContextUserID), c.GetString(ContextUserEmail), c.GetString(ContextUserRole))
	})
	router.DELETE("/thing", AuthMiddleware(validator), RequireAnyRole(domain.RoleOwner, domain.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	router.GET("/maybe", OptionalAuthMiddleware(validator), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserID))
	})
	router.GET("/guarded", RequireAnyRole(domain.RoleOwner), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthRouter()

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized, body: "Authorization header is required"},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, body: "Invalid authorization header format"},
		{name: "invalid token", header: "Bearer nope", status: http.StatusUnauthorized, body: "Invalid or expired token"},
		{name: "valid token", header: "Bearer owner-token", status: http.StatusOK, body: "owner|owner@acme.test|owner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/me", tt.header)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	router := newAuthRouter()

	assert.Equal(t, "member", serve(router, http.MethodGet, "/maybe", "Bearer member-token").Body.String())
	assert.Equal(t, "", serve(router, http.MethodGet, "/maybe", "Bearer nope").Body.String())
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/maybe", "").Code)
}

func TestRequireAnyRole(t *testing.T) {
	router := newAuthRouter()

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodDelete, "/thing", "Bearer owner-token").Code)

	rec := serve(router, http.MethodDelete, "/thing", "Bearer member-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Forbidden"`)

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/guarded", "").Code)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	rec := serve(router, http.MethodGet, "/", "")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", rec.Body.String())
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.acme.test"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.acme.test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.acme.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.acme.test")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestRequestResponseLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	})
	router.Use(RequestResponseLogger(LoggerConfig{LogBodies: true, SkipPaths: []string{"/health"}}))
	router.POST("/login", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "bad", "accessToken": "xyz"})
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@b.test","password":"hunter2"}`))
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"status_code":401`)
	assert.Contains(t, out, `"a@b.test"`)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "secret-token")
	assert.NotContains(t, out, "xyz")

	buf.Reset()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())
}

func TestParseAndRedactBody(t *testing.T) {
	redacted := parseAndRedactBody([]byte(`{"items":[{"name":"Widget","apiKey":"k"}],"refreshToken":"r"}`))
	assert.Equal(t, map[string]interface{}{
		"items":        []interface{}{map[string]interface{}{"name": "Widget", "apiKey": "[REDACTED]"}},
		"refreshToken": "[REDACTED]",
	}, redacted)

	long := strings.Repeat("x", 1200)
	assert.Equal(t, strings.Repeat("x", 1000)+"... (truncated)", parseAndRedactBody([]byte(long)))
}
