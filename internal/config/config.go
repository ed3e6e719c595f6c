package config

import (
	"log/slog"
	"os"
	"time"
)

// Config carries all runtime configuration, read from the environment.
type Config struct {
	Port         string
	Env          string
	DatabaseDSN  string
	JWTSecret    string
	JWTExpiry    time.Duration
	GroqAPIKey   string
	ResendAPIKey string
	MailFrom     string
	ResetBaseURL string
}

// Load reads configuration from the environment. The token signing key and
// the external provider keys are required; starting without them is a
// configuration error.
func Load() Config {
	return Config{
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		DatabaseDSN:  getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/nestlyflow?parseTime=true"),
		JWTSecret:    mustEnv("JWT_SECRET"),
		JWTExpiry:    30 * time.Minute,
		GroqAPIKey:   mustEnv("GROQ_API_KEY"),
		ResendAPIKey: mustEnv("RESEND_API_KEY"),
		MailFrom:     getEnv("MAIL_FROM", "onboarding@resend.dev"),
		ResetBaseURL: getEnv("RESET_BASE_URL", "http://localhost:3000/"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}
