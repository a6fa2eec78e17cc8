package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mini-drive/backend/internal/db/migrations"
)

// ErrMigrationDrift means an already-applied changelog entry no longer
// matches the checksum recorded when it was applied. The process must not
// serve traffic in that state.
var ErrMigrationDrift = errors.New("migration checksum drift")

const checksumLedgerDDL = `
	CREATE TABLE IF NOT EXISTS schema_checksums (
		filename TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Migrate brings the database to the current schema. It runs exclusively at
// startup, before any request handler exists:
//
//  1. verify recorded checksums against the embedded changelog (drift check),
//  2. apply pending entries through goose (one transaction per entry),
//  3. record checksums for entries applied for the first time.
//
// Re-running against a current database applies nothing and changes no
// ledger row.
func Migrate(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	if _, err := sqlDB.ExecContext(ctx, checksumLedgerDDL); err != nil {
		return fmt.Errorf("ensure checksum ledger: %w", err)
	}

	sums, err := ChangelogChecksums(migrations.Migrations)
	if err != nil {
		return err
	}

	if err := verifyChecksums(ctx, sqlDB, sums); err != nil {
		return err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return recordChecksums(ctx, sqlDB, sums)
}

// ChangelogChecksums returns filename -> sha256 hex for every .sql entry in
// the changelog, in lexical (= version) order.
func ChangelogChecksums(fsys fs.FS) (map[string]string, error) {
	entries, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)

	sums := make(map[string]string, len(entries))
	for _, name := range entries {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read changelog entry %s: %w", name, err)
		}
		sum := sha256.Sum256(content)
		sums[name] = hex.EncodeToString(sum[:])
	}
	return sums, nil
}

func verifyChecksums(ctx context.Context, sqlDB *sql.DB, sums map[string]string) error {
	rows, err := sqlDB.QueryContext(ctx, `SELECT filename, checksum FROM schema_checksums`)
	if err != nil {
		return fmt.Errorf("read checksum ledger: %w", err)
	}
	defer rows.Close()

	recorded := make(map[string]string)
	for rows.Next() {
		var filename, checksum string
		if err := rows.Scan(&filename, &checksum); err != nil {
			return err
		}
		recorded[filename] = checksum
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return compareChecksums(recorded, sums)
}

// compareChecksums checks every recorded (= already applied) entry against
// the current changelog. Changelog entries without a recorded checksum are
// simply not applied yet; a recorded entry whose current content differs,
// or which vanished from the changelog entirely, is drift.
func compareChecksums(recorded, current map[string]string) error {
	names := make([]string, 0, len(recorded))
	for name := range recorded {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sum, ok := current[name]
		if !ok {
			return fmt.Errorf("%w: applied entry %s is missing from the changelog", ErrMigrationDrift, name)
		}
		if sum != recorded[name] {
			return fmt.Errorf("%w: %s was modified after being applied", ErrMigrationDrift, name)
		}
	}
	return nil
}

func recordChecksums(ctx context.Context, sqlDB *sql.DB, sums map[string]string) error {
	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		_, err := sqlDB.ExecContext(ctx, `
			INSERT INTO schema_checksums (filename, checksum)
			VALUES ($1, $2)
			ON CONFLICT (filename) DO NOTHING
		`, name, sums[name])
		if err != nil {
			return fmt.Errorf("record checksum for %s: %w", name, err)
		}
	}
	return nil
}
