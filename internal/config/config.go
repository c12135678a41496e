package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port          int
	JWTSecret     string
	DatabaseURL   string
	EncryptionKey string
	CORSOrigins   []string
	AdminEmail    string
	AdminPassword string

	// Paygic payment processor. When MerchantID is empty the server runs
	// with the mock gateway (local development / staging).
	PaygicBaseURL    string
	PaygicMerchantID string
	PaygicSecret     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port, _ := strconv.Atoi(getEnv("PORT", "4001"))

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	encKey := getEnv("ENCRYPTION_KEY", "")
	if encKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required (must be exactly 32 bytes)")
	}
	if len(encKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(encKey))
	}

	merchantID := getEnv("PAYGIC_MERCHANT_ID", "")
	if merchantID != "" && getEnv("PAYGIC_SECRET", "") == "" {
		return nil, fmt.Errorf("PAYGIC_SECRET is required when PAYGIC_MERCHANT_ID is set")
	}

	origins := strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,https://growtools.in"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:             port,
		JWTSecret:        jwtSecret,
		DatabaseURL:      dbURL,
		EncryptionKey:    encKey,
		CORSOrigins:      origins,
		AdminEmail:       getEnv("ADMIN_EMAIL", "admin@growtools.in"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "admin123"),
		PaygicBaseURL:    getEnv("PAYGIC_BASE_URL", "https://server.paygic.in"),
		PaygicMerchantID: merchantID,
		PaygicSecret:     getEnv("PAYGIC_SECRET", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
