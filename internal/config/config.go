package config

import (
	"os"
	"strings"
	"time"

	"invitera-service/internal/pkg/jwt"
)

type AppConfig struct {
	// Server
	HTTPAddr  string
	BaseURL   string // public site origin, used in emails and OAuth redirects
	RedisAddr string
	RedisPass string

	// JWT
	JWT jwt.Config

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// SMTP
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPass     string
	SMTPFromName string
	SMTPSecure   bool
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8000"),
		BaseURL:   getEnv("BASE_URL", "http://localhost:3000"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		JWT: jwt.Config{
			PrivPath: getEnv("JWT_PRIVATE_KEY_PATH", "/app/secrets/jwt_private.pem"),
			PubPath:  getEnv("JWT_PUBLIC_KEY_PATH", "/app/secrets/jwt_public.pem"),
			Issuer:   "invitera",
			Audience: "invitera-users",
			TTL:      24 * time.Hour,
			KID:      "invitera-key",
		},

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "465"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPass:     getEnv("SMTP_PASS", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Invitera"),
		SMTPSecure:   strings.ToLower(getEnv("SMTP_SECURE", "true")) == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
