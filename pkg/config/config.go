package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	StorageBackend     string
	StorageDir         string
	RedisURL           string
	DatabaseURL        string
	DocumentKey        string
	JWTSecret          string
	TokenTTL           time.Duration
	IdleTimeout        time.Duration
	IdleWarning        time.Duration
	MockLatency        time.Duration
	RoutesFile         string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	// APIURL is the remote service the CLI talks to
	APIURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	tokenTTL, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := getDuration("IDLE_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	idleWarning, err := getDuration("IDLE_WARNING", time.Minute)
	if err != nil {
		return nil, err
	}
	if idleWarning > idleTimeout {
		return nil, fmt.Errorf("IDLE_WARNING (%s) exceeds IDLE_TIMEOUT (%s)", idleWarning, idleTimeout)
	}
	latency, err := getDuration("MOCK_LATENCY", 0)
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory))
	switch backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q", backend)
	}
	if backend == BackendPostgres && os.Getenv("DATABASE_URL") == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}

	return &Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     port,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StorageBackend: backend,
		StorageDir:     getEnv("STORAGE_DIR", defaultStorageDir()),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DocumentKey:    getEnv("DOCUMENT_KEY", "internhub_db"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTL:       tokenTTL,
		IdleTimeout:    idleTimeout,
		IdleWarning:    idleWarning,
		MockLatency:    latency,
		RoutesFile:     os.Getenv("ROUTES_FILE"),
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		RateLimitPerMinute: rateLimit,
		APIURL:             getEnv("INTERNHUB_API", "http://localhost:8080"),
	}, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".internhub"
	}
	return filepath.Join(home, ".internhub")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", key)
	}
	return d, nil
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
