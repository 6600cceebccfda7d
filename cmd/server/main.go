package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/ridwanfathin/invoicing-service/docs"
	"github.com/ridwanfathin/invoicing-service/internal/config"
	"github.com/ridwanfathin/invoicing-service/internal/currency"
	"github.com/ridwanfathin/invoicing-service/internal/database"
	"github.com/ridwanfathin/invoicing-service/internal/logger"
	"github.com/ridwanfathin/invoicing-service/internal/repository"
	"github.com/ridwanfathin/invoicing-service/internal/server"
	"github.com/ridwanfathin/invoicing-service/internal/service"
	"github.com/ridwanfathin/invoicing-service/internal/stock"
)

// @title Invoicing Service API
// @version 1.0
// @description Invoices and proformas with Ghana VAT, NHIL and GETFund levies, payment tracking and stock deduction.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	if err := logger.Setup(logCfg); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}

	stores, closeStores, err := openStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize repository")
	}
	defer closeStores()

	currencyClient := currency.NewClient(cfg.CurrencyAPIURL)

	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:            stores.users,
		JWTSecret:           cfg.JWTSecret,
		JWTAccessExpiration: cfg.JWTAccessExpiration,
	})

	invoiceService := service.NewInvoiceService(service.InvoiceServiceConfig{
		Invoices:        stores.invoices,
		Users:           stores.users,
		Rates:           currencyClient,
		DefaultCurrency: cfg.ReportingCurrency,
		Hooks:           []service.InvoiceCreatedHook{stock.NewDispatcher(stores.catalog)},
	})

	catalogService := service.NewCatalogService(stores.catalog, stores.users)

	appServer := server.NewServer(cfg, server.Dependencies{
		AuthService:    authService,
		InvoiceService: invoiceService,
		CatalogService: catalogService,
		CurrencyClient: currencyClient,
	})

	if err := appServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

type repositories struct {
	invoices repository.InvoiceRepository
	catalog  repository.CatalogRepository
	users    repository.UserRepository
}

// openStores connects to Postgres when a database URL is configured and falls
// back to the in-memory store otherwise
func openStores(cfg *config.Config) (repositories, func(), error) {
	if cfg.DatabaseURL == "" {
		store := repository.NewMemoryStore()
		log.Warn().Msg("using the in-memory store, data is lost on restart")
		return repositories{invoices: store, catalog: store, users: store}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, nil, err
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return repositories{}, nil, err
		}
	}

	pool := db.GetPool()
	log.Info().Msg("connected to postgres")
	return repositories{
		invoices: repository.NewPostgresInvoiceRepository(pool),
		catalog:  repository.NewPostgresCatalogRepository(pool),
		users:    repository.NewPostgresUserRepository(pool),
	}, db.Close, nil
}
