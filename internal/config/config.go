package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/invoicestudio/backend/pkg/db"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	AuthJWTSecret string
	AuthTokenTTL  int // hours

	DB db.Config

	SMTP SMTPConfig
	FX   FXConfig
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type FXConfig struct {
	// Endpoint serving the free INR-base currency dataset.
	URL      string
	CacheTTL int // seconds
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "invoicestudio"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthTokenTTL:  getenvInt("AUTH_TOKEN_TTL_HOURS", 24*30),

		DB: db.Config{
			Type:            getenv("DATABASE_TYPE", "postgres"),
			Host:            getenv("DATABASE_HOST", "localhost"),
			Port:            getenv("DATABASE_PORT", "5432"),
			Name:            getenv("DATABASE_NAME", "invoicestudio"),
			User:            getenv("DATABASE_USER", "postgres"),
			Password:        getenv("DATABASE_PASSWORD", ""),
			SSLMode:         getenv("DATABASE_SSLMODE", "disable"),
			MaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
			MaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
			ConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
			ConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
		},

		SMTP: SMTPConfig{
			Host:     getenv("EMAIL_HOST", ""),
			Port:     getenvInt("EMAIL_PORT", 587),
			Username: getenv("EMAIL_USER", ""),
			Password: getenv("EMAIL_PASS", ""),
			From:     getenv("EMAIL_FROM", ""),
		},

		FX: FXConfig{
			URL:      getenv("FX_RATES_URL", "https://latest.currency-api.pages.dev/v1/currencies/inr.json"),
			CacheTTL: getenvInt("FX_CACHE_TTL_SECONDS", 600),
		},
	}
}

type LoggerConfig struct {
	Level string
}

func (c Config) Logger() LoggerConfig {
	return LoggerConfig{Level: getenv("LOG_LEVEL", "info")}
}

func provideDBConfig(cfg Config) db.Config {
	return cfg.DB
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(provideDBConfig),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
