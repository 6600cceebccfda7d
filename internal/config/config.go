package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string

	// Logging configuration
	LogLevel  string
	LogFormat string

	// Database configuration; an empty URL selects the in-memory store
	DatabaseURL       string
	AutoMigrate       bool
	ReportingCurrency string
	CurrencyAPIURL    string

	// Auth configuration
	JWTSecret           string
	JWTAccessExpiration time.Duration
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	loadDotEnv()

	config := &Config{
		Port:               getEnvInt("PORT", 8080),
		ReadTimeout:        getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("WRITE_TIMEOUT", 15*time.Second),
		CORSAllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogFormat: getEnvString("LOG_FORMAT", "json"),

		DatabaseURL:       os.Getenv("POSTGRES_DB_URL"),
		AutoMigrate:       getEnvBool("AUTO_MIGRATE", false),
		ReportingCurrency: strings.ToUpper(getEnvString("REPORTING_CURRENCY", "GHS")),
		CurrencyAPIURL:    getEnvString("CURRENCY_API_URL", "https://api.frankfurter.dev/v1"),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTAccessExpiration: getEnvDuration("JWT_ACCESS_EXPIRATION", 24*time.Hour),
	}

	validateConfig(config)

	return config, nil
}

// loadDotEnv loads .env from the project root, falling back to the current directory
func loadDotEnv() {
	execPath, err := os.Executable()
	if err != nil {
		log.Warn().Err(err).Msg("could not determine executable path")
	}

	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(execPath)))
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err == nil {
		log.Debug().Str("path", envPath).Msg("loaded environment from .env")
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
		return
	}
	log.Debug().Msg("loaded environment from current directory .env")
}

// validateConfig logs warnings for missing or suspicious values
func validateConfig(config *Config) {
	if config.JWTSecret == "" {
		log.Warn().Msg("no JWT_SECRET provided, authenticated requests will fail")
	}

	if config.DatabaseURL == "" {
		log.Warn().Msg("no POSTGRES_DB_URL provided, using the in-memory store")
	}

	if len(config.ReportingCurrency) != 3 {
		log.Warn().Str("currency", config.ReportingCurrency).Msg("invalid REPORTING_CURRENCY, using GHS")
		config.ReportingCurrency = "GHS"
	}
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("invalid integer, using default")
		return defaultValue
	}

	return value
}

// getEnvDuration reads a Go duration ("30s") or a plain number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}

	log.Warn().Str("key", key).Str("value", valueStr).Dur("default", defaultValue).Msg("invalid duration, using default")
	return defaultValue
}

// getEnvBool gets a boolean from an environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvStringSlice gets a string slice from a comma-separated environment variable
func getEnvStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
