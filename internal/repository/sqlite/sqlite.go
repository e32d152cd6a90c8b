package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/pairchat/internal/domain"
	"github.com/msomdec/pairchat/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB is the SQLite storage backend.
type DB struct {
	SqlDB *sql.DB

	users    *UserRepository
	messages *MessageRepository
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes every write, so each collection is
	// mutated by one writer at a time.
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := sqlDB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{SqlDB: sqlDB}
	db.users = &UserRepository{db: sqlDB}
	db.messages = &MessageRepository{db: sqlDB}
	return db, nil
}

// Migrate applies pending schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := migrations.Run(ctx, d.SqlDB)
	return err
}

func (d *DB) Users() domain.UserRepository       { return d.users }
func (d *DB) Messages() domain.MessageRepository { return d.messages }

func (d *DB) Close() error {
	return d.SqlDB.Close()
}
