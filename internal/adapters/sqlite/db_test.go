package sqlite

import (
	"context"
	"strings"
	"testing"
)

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.SQL.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master: %v", err)
	}
	return n == 1
}

func TestMigrate_UpDownUp(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if !tableExists(t, db, "entities") || !tableExists(t, db, "entity_locks") {
		t.Fatalf("tables should exist after Open")
	}
	// idempotent
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	if err := db.MigrateDown(ctx, 0); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	if tableExists(t, db, "entities") {
		t.Fatalf("entities should be dropped")
	}
	applied, err := db.appliedVersions(ctx)
	if err != nil {
		t.Fatalf("appliedVersions: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("applied after down: %v", applied)
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate again: %v", err)
	}
	if !tableExists(t, db, "entities") {
		t.Fatalf("entities should be recreated")
	}
}

func TestExtractSection(t *testing.T) {
	text := "-- +migrate Up\nCREATE TABLE a(x);\n-- +migrate Down\nDROP TABLE a;\n"
	if got := strings.TrimSpace(extractSection(text, "Up")); got != "CREATE TABLE a(x);" {
		t.Fatalf("Up: got %q", got)
	}
	if got := strings.TrimSpace(extractSection(text, "Down")); got != "DROP TABLE a;" {
		t.Fatalf("Down: got %q", got)
	}
}

func TestDSN(t *testing.T) {
	if got := dsn(":memory:"); got != ":memory:" {
		t.Fatalf("memory: got %q", got)
	}
	if got := dsn("radiko.db"); !strings.HasPrefix(got, "file:radiko.db?") || !strings.Contains(got, "busy_timeout") {
		t.Fatalf("file: got %q", got)
	}
}
