package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Admin     AdminConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Timing    TimingConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	RequestCeiling int
}

// AdminConfig is the single configured admin identity. The pair may be
// absent at startup; the gate then answers 500 until it is provisioned.
// PasswordHash, when set, takes precedence over Password and must be a
// bcrypt hash.
type AdminConfig struct {
	Email        string
	Password     string
	PasswordHash string
}

type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	CookieDomain string
}

type RateLimitConfig struct {
	MaxAttempts     int
	Window          time.Duration
	Lockout         time.Duration
	CleanupInterval time.Duration
}

// RedisConfig selects the shared attempt-record backend. An empty Addr
// means the process-local in-memory store is used instead.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TimingConfig struct {
	BaseDelayMs   int
	RandomDelayMs int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	env := getEnv("ENV", "development")

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitAndTrim(getEnv("TRUSTED_PROXIES", "")),
			RequestCeiling: getEnvAsInt("REQUEST_CEILING_PER_MINUTE", 120),
		},
		Admin: AdminConfig{
			Email:        strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
			Password:     getEnv("ADMIN_PASSWORD", ""),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Session: SessionConfig{
			Secret:       sessionSecret,
			TTL:          getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", ""),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:     getEnvAsInt("RATE_LIMIT_MAX_ATTEMPTS", 5),
			Window:          getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			Lockout:         getEnvAsDuration("RATE_LIMIT_LOCKOUT", 30*time.Minute),
			CleanupInterval: getEnvAsDuration("RATE_LIMIT_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Timing: TimingConfig{
			BaseDelayMs:   getEnvAsInt("TIMING_DELAY_BASE_MS", 100),
			RandomDelayMs: getEnvAsInt("TIMING_DELAY_RANDOM_MS", 50),
		},
	}

	if cfg.RateLimit.MaxAttempts < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Session.TTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum strength for the signing key
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return splitAndTrim(getEnv("ALLOWED_ORIGINS", ""))
	}

	// Development: localhost variants for the admin dashboard
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
