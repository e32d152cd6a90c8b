// Package memory keeps users and messages in process memory. Nothing
// survives a restart; it backs tests and throwaway local runs.
package memory

import (
	"context"

	"github.com/msomdec/pairchat/internal/domain"
)

// DB is the in-memory storage backend.
type DB struct {
	users    *UserStore
	messages *MessageStore
}

// New creates an empty in-memory backend.
func New() *DB {
	return &DB{
		users:    NewUserStore(),
		messages: NewMessageStore(),
	}
}

func (d *DB) Migrate(ctx context.Context) error { return nil }
func (d *DB) Users() domain.UserRepository { return d.users }
func (d *DB) Messages() domain.MessageRepository { return d.messages }
func (d *DB) Close() error { return nil }
