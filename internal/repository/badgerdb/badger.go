// Package badgerdb stores users and messages in an embedded BadgerDB key-value
// store.
//
// Key layout:
//
//	user:id:{id}                          -> user record (JSON)
//	user:email:{email}                    -> user id
//	msg:{id}                              -> message record (JSON)
//	msg-pair:{low}:{high}:{nanos}:{id}    -> message id
//	msg-user:{userID}:{id}                -> message id
//
// Ids are UUIDv7, so iterating a prefix that ends in an id yields creation
// order; the zero-padded nanosecond component orders a pair by timestamp.
package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/msomdec/pairchat/internal/domain"
)

const schemaVersionKey = "meta:schema_version"

// currentSchema is bumped whenever the key layout changes.
const currentSchema = "1"

// DB is the Badger storage backend.
type DB struct {
	kv *badger.DB

	users    *UserRepository
	messages *MessageRepository
}

// Open opens (or creates) a Badger store in dir. An empty dir opens a
// purely in-memory store.
func Open(dir string) (*DB, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR).
		WithSyncWrites(true)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	kv, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &DB{
		kv:       kv,
		users:    &UserRepository{kv: kv},
		messages: &MessageRepository{kv: kv},
	}, nil
}

// Migrate records the key layout version. Badger is schemaless, so there is
// nothing else to apply; a store written with a different layout is refused.
func (d *DB) Migrate(ctx context.Context) error {
	return d.kv.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaVersionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(schemaVersionKey), []byte(currentSchema))
		}
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		return item.Value(func(val []byte) error {
			if string(val) != currentSchema {
				return fmt.Errorf("unsupported schema version %q", val)
			}
			return nil
		})
	})
}

func (d *DB) Users() domain.UserRepository       { return d.users }
func (d *DB) Messages() domain.MessageRepository { return d.messages }

func (d *DB) Close() error {
	return d.kv.Close()
}

// collection serializes the read-check-write cycle of one key family.
type collection struct {
	mu sync.Mutex
}

func getJSON(txn *badger.Txn, key string, dst any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// scanValues walks every key under prefix in ascending order and hands each
// value to fn.
func scanValues(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}
