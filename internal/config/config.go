package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTP     HTTPConfig
	Log      LogConfig
	Auth     AuthConfig
	Postgres PostgresConfig
	Storage  StorageConfig
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxInFlight     int64
	RateLimitRPS    float64
	RateLimitBurst  int
	AllowedOrigins  []string
}

type LogConfig struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type AuthConfig struct {
	JWTSecret     string
	AccessTTL     time.Duration
	AdminUsername string
	AdminPassword string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type StorageConfig struct {
	Root           string
	MaxUploadBytes int64
}

// Load reads the whole configuration from the environment. It does not
// validate; call Validate before serving traffic.
func Load() (Config, error) {
	accessTTL, err := parseDuration("JWT_ACCESS_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	maxUpload, err := parseInt64("MAX_UPLOAD_BYTES", 64<<20)
	if err != nil {
		return Config{}, err
	}
	logJSON, err := parseBool("LOG_JSON", true)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Addr:            getenv("HTTP_ADDR", ":8080"),
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute, // archive downloads can be slow
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxInFlight:     256,
			RateLimitRPS:    200,
			RateLimitBurst:  400,
			AllowedOrigins:  splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:      getenv("LOG_LEVEL", "info"),
			JSON:       logJSON,
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			AccessTTL:     accessTTL,
			AdminUsername: os.Getenv("ADMIN_USERNAME"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Storage: StorageConfig{
			Root:           os.Getenv("STORAGE_ROOT"),
			MaxUploadBytes: maxUpload,
		},
	}
	return cfg, nil
}

// Validate enforces the values without which the process must not start.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.Auth.AccessTTL <= 0 {
		return fmt.Errorf("config: JWT_ACCESS_TTL must be positive")
	}
	if c.Storage.Root == "" {
		return fmt.Errorf("config: STORAGE_ROOT is required")
	}
	if c.Postgres.DatabaseURL == "" && (c.Postgres.User == "" || c.Postgres.Database == "") {
		return fmt.Errorf("config: DATABASE_URL or PGUSER/PGDATABASE are required")
	}
	if (c.Auth.AdminUsername == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("config: ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return d, nil
}

func parseInt64(key string, fallback int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return b, nil
}

func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
