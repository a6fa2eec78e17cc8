package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mini-drive/backend/internal/config"
)

func TestBuildPostgresURLPrefersDatabaseURL(t *testing.T) {
	dsn, err := BuildPostgresURL(config.PostgresConfig{
		DatabaseURL: "postgres://app:pw@db.internal:5432/drive",
		User:        "ignored",
		Database:    "ignored",
	})
	if err != nil {
		t.Fatalf("BuildPostgresURL: %v", err)
	}
	if dsn != "postgres://app:pw@db.internal:5432/drive" {
		t.Fatalf("dsn %q", dsn)
	}
}

func TestBuildPostgresURLFromParts(t *testing.T) {
	dsn, err := BuildPostgresURL(config.PostgresConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "app",
		Password: "p@ss word",
		Database: "drive",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("BuildPostgresURL: %v", err)
	}
	for _, want := range []string{"postgres://", "localhost:5432", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
	if strings.Contains(dsn, "p@ss word") {
		t.Fatalf("password not escaped in %q", dsn)
	}
}

func TestBuildPostgresURLMissingParts(t *testing.T) {
	if _, err := BuildPostgresURL(config.PostgresConfig{Host: "localhost"}); err == nil {
		t.Fatal("expected error without user/database")
	}
}

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(pgx.ErrNoRows) {
		t.Fatal("bare pgx.ErrNoRows not detected")
	}
	if !IsNoRows(fmt.Errorf("lookup: %w", pgx.ErrNoRows)) {
		t.Fatal("wrapped pgx.ErrNoRows not detected")
	}
	if IsNoRows(errors.New("something else")) {
		t.Fatal("false positive")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation misclassified")
	}
	if IsUniqueViolation(errors.New("not a pg error")) {
		t.Fatal("false positive")
	}
}
