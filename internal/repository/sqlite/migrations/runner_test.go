package migrations_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/msomdec/pairchat/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// A second pooled connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	n, err := migrations.Run(ctx, db)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 migrations applied, got %d", n)
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, ?)",
		"u1", "alice", "alice@x.com", "hash",
	); err != nil {
		t.Fatalf("insert into users: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO messages (id, sender_id, receiver_id, content, sent_at) VALUES (?, ?, ?, ?, ?)",
		"m1", "u1", "u1", "hi", 1,
	); err != nil {
		t.Fatalf("insert into messages: %v", err)
	}
}

func TestRunIdempotent(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	if _, err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	n, err := migrations.Run(ctx, db)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no migrations on second run, got %d", n)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 migration records, got %d", count)
	}
}
