package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally via a .env file) with development defaults.
type Config struct {
	ServerAddr string

	// Database. Driver is "mysql" in production; "sqlite3" keeps local
	// development and tests self-contained (DBPath is only used then).
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	// Redis cache for catalog responses.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// External music catalog.
	CatalogBaseURL      string
	CatalogAuthURL      string
	CatalogClientID     string
	CatalogClientSecret string

	// Auth.
	JWTSecret string
	TokenTTL  time.Duration

	// Logging.
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or
// defaults. godotenv.Load does not override variables that are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "maestro"),
		DBPath:     getEnv("DB_PATH", "maestro.db"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CatalogBaseURL:      getEnv("CATALOG_BASE_URL", "https://api.spotify.com/v1"),
		CatalogAuthURL:      getEnv("CATALOG_AUTH_URL", "https://accounts.spotify.com/api/token"),
		CatalogClientID:     os.Getenv("CATALOG_CLIENT_ID"),
		CatalogClientSecret: os.Getenv("CATALOG_CLIENT_SECRET"),

		JWTSecret: getEnv("JWT_SECRET", "maestro-dev-secret"),
		TokenTTL:  time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
