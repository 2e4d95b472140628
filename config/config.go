package config

import (
	"checkout-payment-api/database"
	"github.com/joho/godotenv"
	"log"
	"os"
	"strconv"
)

type Config struct {
	Database database.DatabaseConfig
	Provider ProviderConfig
	Backend  BackendConfig
	Session  SessionConfig
	Server   ServerConfig
	Redis    RedisConfig
}

type ProviderConfig struct {
	APIKey      string
	Environment string
	ReturnURL   string
}

type BackendConfig struct {
	URL          string
	ChannelToken string
}

type SessionConfig struct {
	CookieSecret string
	TokenSecret  string
	TTLMinutes   int
}

type ServerConfig struct {
	Port string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	dir, err := os.Getwd()
	if err != nil {
		log.Printf("Error getting current directory: %v", err)
	}
	log.Printf("Current directory: %s", dir)

	// Default worker concurrency
	workerConcurrency := 2

	// Session TTL default keeps abandoned widget sessions from living forever
	sessionTTL := 30
	if raw := os.Getenv("SESSION_TTL_MINUTES"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			sessionTTL = parsed
		} else {
			log.Printf("Warning: invalid SESSION_TTL_MINUTES %q, using default %d", raw, sessionTTL)
		}
	}

	cfg := &Config{
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Provider: ProviderConfig{
			APIKey:      os.Getenv("PROVIDER_API_KEY"),
			Environment: os.Getenv("PROVIDER_ENVIRONMENT"),
			ReturnURL:   os.Getenv("PROVIDER_RETURN_URL"),
		},
		Backend: BackendConfig{
			URL:          os.Getenv("BACKEND_API_URL"),
			ChannelToken: os.Getenv("BACKEND_CHANNEL_TOKEN"),
		},
		Session: SessionConfig{
			CookieSecret: os.Getenv("SESSION_COOKIE_SECRET"),
			TokenSecret:  os.Getenv("SESSION_TOKEN_SECRET"),
			TTLMinutes:   sessionTTL,
		},
		Server: ServerConfig{
			Port: os.Getenv("SERVER_PORT"),
		},
		Redis: RedisConfig{
			URL:               os.Getenv("REDIS_URL"),
			WorkerConcurrency: workerConcurrency,
		},
	}

	// Use default Redis URL if not set
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
		log.Printf("Warning: REDIS_URL not set, using default: %s", cfg.Redis.URL)
	}

	if cfg.Provider.Environment == "" {
		cfg.Provider.Environment = "stage"
	}

	return cfg
}
