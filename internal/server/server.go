package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ridwanfathin/invoicing-service/internal/config"
	"github.com/ridwanfathin/invoicing-service/internal/currency"
	"github.com/ridwanfathin/invoicing-service/internal/domain"
	"github.com/ridwanfathin/invoicing-service/internal/handler"
	"github.com/ridwanfathin/invoicing-service/internal/middleware"
	"github.com/ridwanfathin/invoicing-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	AuthService    service.AuthService
	InvoiceService service.InvoiceService
	CatalogService service.CatalogService
	CurrencyClient *currency.Client
}

// Server represents the HTTP server of the invoicing service
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
}

// NewServer creates and configures a new server instance
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.RequestResponseLogger(middleware.LoggerConfig{
		LogBodies: cfg.LogLevel == "debug" || cfg.LogLevel == "trace",
		SkipPaths: []string{"/health"},
	}))

	server := &Server{
		router: router,
		config: cfg,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	server.setupRoutes(deps)

	return server
}

// GetRouter returns the gin router instance
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes(deps Dependencies) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Swagger UI at /api-docs/index.html
	s.router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})

	authMiddleware := middleware.AuthMiddleware(deps.AuthService)
	manage := middleware.RequireAnyRole(domain.RoleOwner, domain.RoleAdmin)

	v1 := s.router.Group("/v1")
	handler.NewAuthHandler(deps.AuthService).RegisterRoutes(v1, authMiddleware)

	protected := v1.Group("", authMiddleware)
	handler.NewInvoiceHandler(deps.InvoiceService).RegisterRoutes(protected, manage)
	handler.NewCatalogHandler(deps.CatalogService).RegisterRoutes(protected, manage)
	if deps.CurrencyClient != nil {
		handler.NewCurrencyHandler(deps.CurrencyClient, s.config.ReportingCurrency).RegisterRoutes(protected)
	}
}

// Start begins listening for requests and handles graceful shutdown
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.config.Port).Msg("server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited gracefully")
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}
