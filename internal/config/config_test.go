package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Auth: AuthConfig{
			JWTSecret: "secret",
			AccessTTL: 30 * time.Minute,
		},
		Storage:  StorageConfig{Root: "/var/lib/drive"},
		Postgres: PostgresConfig{DatabaseURL: "postgres://app:pw@localhost/drive"},
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"zero ttl", func(c *Config) { c.Auth.AccessTTL = 0 }},
		{"missing storage root", func(c *Config) { c.Storage.Root = "" }},
		{"missing db coordinates", func(c *Config) { c.Postgres = PostgresConfig{} }},
		{"admin username without password", func(c *Config) { c.Auth.AdminUsername = "root" }},
		{"admin password without username", func(c *Config) { c.Auth.AdminPassword = "pw" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsDiscreteCoordinates(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres = PostgresConfig{User: "app", Database: "drive"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("discrete PG coordinates rejected: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "JWT_ACCESS_TTL", "MAX_UPLOAD_BYTES", "LOG_LEVEL",
		"LOG_JSON", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("addr %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.AccessTTL != 30*time.Minute {
		t.Fatalf("ttl %v", cfg.Auth.AccessTTL)
	}
	if cfg.Storage.MaxUploadBytes != 64<<20 {
		t.Fatalf("max upload %d", cfg.Storage.MaxUploadBytes)
	}
	if !cfg.Log.JSON || cfg.Log.Level != "info" {
		t.Fatalf("log defaults %+v", cfg.Log)
	}
	if cfg.HTTP.AllowedOrigins != nil {
		t.Fatalf("origins %v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.AccessTTL != 15*time.Minute {
		t.Fatalf("ttl %v", cfg.Auth.AccessTTL)
	}
	if cfg.Storage.MaxUploadBytes != 1<<20 {
		t.Fatalf("max upload %d", cfg.Storage.MaxUploadBytes)
	}
	origins := cfg.HTTP.AllowedOrigins
	if len(origins) != 2 || origins[0] != "https://a.example" || origins[1] != "https://b.example" {
		t.Fatalf("origins %v", origins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid integer")
	}
}
