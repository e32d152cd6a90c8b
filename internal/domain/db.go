package domain

import "context"

// Database defines lifecycle operations for the underlying storage backend.
// Each implementation (SQLite, Badger, in-memory) owns its own schema and
// migration strategy, ensuring the entire backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Users() UserRepository
	Messages() MessageRepository
	Close() error
}
