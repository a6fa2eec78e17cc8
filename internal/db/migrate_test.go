package db

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/mini-drive/backend/internal/db/migrations"
)

func TestChangelogChecksums(t *testing.T) {
	fsys := fstest.MapFS{
		"00001_a.sql": {Data: []byte("CREATE TABLE a (id BIGINT);")},
		"00002_b.sql": {Data: []byte("CREATE TABLE b (id BIGINT);")},
		"README.md":   {Data: []byte("not a changelog entry")},
	}

	sums, err := ChangelogChecksums(fsys)
	if err != nil {
		t.Fatalf("ChangelogChecksums: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(sums), sums)
	}
	if _, ok := sums["README.md"]; ok {
		t.Fatal("non-sql file must not be checksummed")
	}
	for name, sum := range sums {
		if len(sum) != 64 {
			t.Fatalf("%s: checksum %q is not sha256 hex", name, sum)
		}
	}
}

func TestChangelogChecksumsDeterministic(t *testing.T) {
	fsys := fstest.MapFS{
		"00001_a.sql": {Data: []byte("CREATE TABLE a (id BIGINT);")},
	}

	first, err := ChangelogChecksums(fsys)
	if err != nil {
		t.Fatalf("ChangelogChecksums: %v", err)
	}
	second, err := ChangelogChecksums(fsys)
	if err != nil {
		t.Fatalf("ChangelogChecksums: %v", err)
	}
	if first["00001_a.sql"] != second["00001_a.sql"] {
		t.Fatal("checksum not deterministic")
	}

	fsys["00001_a.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE a (id BIGINT, name TEXT);")}
	changed, err := ChangelogChecksums(fsys)
	if err != nil {
		t.Fatalf("ChangelogChecksums: %v", err)
	}
	if changed["00001_a.sql"] == first["00001_a.sql"] {
		t.Fatal("modified entry must change its checksum")
	}
}

func TestCompareChecksumsMatch(t *testing.T) {
	recorded := map[string]string{"00001_a.sql": "aaa", "00002_b.sql": "bbb"}
	current := map[string]string{"00001_a.sql": "aaa", "00002_b.sql": "bbb"}
	if err := compareChecksums(recorded, current); err != nil {
		t.Fatalf("matching ledger rejected: %v", err)
	}
}

func TestCompareChecksumsAllowsUnappliedEntries(t *testing.T) {
	// A fresh changelog entry has no recorded checksum yet; that is the
	// normal pending state, not drift.
	recorded := map[string]string{"00001_a.sql": "aaa"}
	current := map[string]string{"00001_a.sql": "aaa", "00002_b.sql": "bbb"}
	if err := compareChecksums(recorded, current); err != nil {
		t.Fatalf("pending entry rejected: %v", err)
	}
	if err := compareChecksums(map[string]string{}, current); err != nil {
		t.Fatalf("empty ledger rejected: %v", err)
	}
}

func TestCompareChecksumsMismatchIsDrift(t *testing.T) {
	recorded := map[string]string{"00001_a.sql": "aaa"}
	current := map[string]string{"00001_a.sql": "modified"}
	err := compareChecksums(recorded, current)
	if !errors.Is(err, ErrMigrationDrift) {
		t.Fatalf("expected ErrMigrationDrift, got %v", err)
	}
}

func TestCompareChecksumsMissingEntryIsDrift(t *testing.T) {
	recorded := map[string]string{"00001_a.sql": "aaa"}
	current := map[string]string{}
	err := compareChecksums(recorded, current)
	if !errors.Is(err, ErrMigrationDrift) {
		t.Fatalf("expected ErrMigrationDrift, got %v", err)
	}
}

func TestEmbeddedChangelogIsWellFormed(t *testing.T) {
	sums, err := ChangelogChecksums(migrations.Migrations)
	if err != nil {
		t.Fatalf("ChangelogChecksums: %v", err)
	}
	if len(sums) == 0 {
		t.Fatal("embedded changelog is empty")
	}
	for name := range sums {
		if name[0] < '0' || name[0] > '9' {
			t.Fatalf("entry %s does not start with a version number", name)
		}
	}
}
