package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string

	// Security settings
	JWTSecret         string
	AccessTokenExpiry time.Duration

	// Analytics companion service (chat bot)
	ChatServiceURL string

	// Setu Account Aggregator settings
	SetuBaseURL           string
	SetuOrgServiceURL     string
	SetuClientID          string
	SetuClientSecret      string
	SetuProductInstanceID string
	SetuTokenCacheTTL     time.Duration

	// Push delivery (Firebase Cloud Messaging)
	FirebaseCredentialsFile string

	// Deep link back into the mobile app after the consent webview.
	ConsentRedirectURL string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from a subdir)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	jwtSecret := getRequiredEnv("JWT_SECRET")

	// Mobile clients stay signed in for a week before re-authenticating.
	accessTokenExpiry := getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 168*time.Hour)

	Cfg = &AppConfig{
		// Core
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./nuofunds.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Security
		JWTSecret:         jwtSecret,
		AccessTokenExpiry: accessTokenExpiry,

		// Analytics companion service
		ChatServiceURL: getEnv("CHAT_SERVICE_URL", "http://127.0.0.1:5000"),

		// Setu AA
		SetuBaseURL:           getEnv("SETU_BASE_URL", "https://fiu-uat.setu.co"),
		SetuOrgServiceURL:     getEnv("SETU_ORG_SERVICE_URL", "https://orgservice-prod.setu.co/v1/users/login"),
		SetuClientID:          getEnv("SETU_CLIENT_ID", ""),
		SetuClientSecret:      getEnv("SETU_CLIENT_SECRET", ""),
		SetuProductInstanceID: getEnv("SETU_PRODUCT_INSTANCE_ID", ""),
		SetuTokenCacheTTL:     getEnvAsDuration("SETU_TOKEN_CACHE_TTL", 30*time.Minute),

		// Push delivery
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),

		// Deep link scheme registered by the Expo app.
		ConsentRedirectURL: getEnv("CONSENT_REDIRECT_URL", "nuofunds://consentScreen"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getRequiredEnv retrieves an environment variable or terminates the application if not set.
func getRequiredEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set or is empty. Application cannot start securely.", key)
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
