package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Backend API Configuration
	API APIConfig

	// Token Store Configuration
	TokenStore TokenStoreConfig

	// Database Configuration (dev server)
	Database DatabaseConfig

	// Dev Server Configuration
	DevServer DevServerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds settings for talking to the backend
type APIConfig struct {
	URL                string        // Overrides the selected server when set
	Timeout            time.Duration // 0 disables the client timeout
	InsecureSkipVerify bool
}

// TokenStoreConfig selects where session tokens are persisted
type TokenStoreConfig struct {
	Backend      string // keyring, file, redis, memory
	SessionFile  string
	RedisAddress string // Redis address (host:port)
	RedisPrefix  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// DevServerConfig holds settings for the local development backend
type DevServerConfig struct {
	Addr           string
	JWTSecret      string
	TokenExpiresIn time.Duration
	CORSOrigins    []string
	Seed           bool // Load demo accounts and records on start
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Token store backends
const (
	StoreKeyring = "keyring"
	StoreFile    = "file"
	StoreRedis   = "redis"
	StoreMemory  = "memory"
)

// DefaultHTTPTimeout is used when BOTADMIN_HTTP_TIMEOUT is unset
const DefaultHTTPTimeout = 30 * time.Second

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	timeout := DefaultHTTPTimeout
	if raw := os.Getenv("BOTADMIN_HTTP_TIMEOUT"); raw != "" {
		parsed, err := parseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid BOTADMIN_HTTP_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	backend := strings.ToLower(getEnv("BOTADMIN_TOKEN_STORE", StoreKeyring))
	switch backend {
	case StoreKeyring, StoreFile, StoreRedis, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid BOTADMIN_TOKEN_STORE %q (expected keyring, file, redis or memory)", backend)
	}

	expireMinutes := 30
	if raw := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES %q", raw)
		}
		expireMinutes = parsed
	}

	var origins []string
	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return nil, fmt.Errorf("invalid CORS_ORIGINS %q: no origins listed", os.Getenv("CORS_ORIGINS"))
	}

	return &Config{
		API: APIConfig{
			URL:                strings.TrimRight(os.Getenv("BOTADMIN_API_URL"), "/"),
			Timeout:            timeout,
			InsecureSkipVerify: getEnvBool("BOTADMIN_INSECURE_SKIP_VERIFY"),
		},
		TokenStore: TokenStoreConfig{
			Backend:      backend,
			SessionFile:  getEnv("BOTADMIN_SESSION_FILE", DefaultSessionFile()),
			RedisAddress: getEnv("BOTADMIN_REDIS_ADDRESS", "localhost:6379"),
			RedisPrefix:  getEnv("BOTADMIN_REDIS_PREFIX", "botadmin"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ":memory:"),
		},
		DevServer: DevServerConfig{
			Addr:           getEnv("DEVSERVER_ADDR", "127.0.0.1:8000"),
			JWTSecret:      os.Getenv("JWT_SECRET"),
			TokenExpiresIn: time.Duration(expireMinutes) * time.Minute,
			CORSOrigins:    origins,
			Seed:           getEnv("DEVSERVER_SEED", "true") != "false",
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}, nil
}

// Dir returns the per-user configuration directory
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "botadmin"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "botadmin"), nil
}

// DefaultSessionFile returns the file token store location
func DefaultSessionFile() string {
	dir, err := Dir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(dir, "session.json")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && value
}

// parseDuration accepts Go durations ("45s") or bare seconds ("45")
func parseDuration(raw string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("must not be negative")
		}
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}
