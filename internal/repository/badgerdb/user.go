package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/msomdec/pairchat/internal/domain"
)

// UserRepository implements domain.UserRepository on Badger.
type UserRepository struct {
	kv *badger.DB
	collection
}

type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func userKey(id string) string { return "user:id:" + id }
func emailKey(email string) string { return "user:email:" + email }

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate user id: %w", err)
	}
	rec := userRecord{
		ID:           id.String(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.kv.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(emailKey(rec.Email)))
		if err == nil {
			return domain.ErrDuplicateEmail
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, userKey(rec.ID), rec); err != nil {
			return err
		}
		return txn.Set([]byte(emailKey(rec.Email)), []byte(rec.ID))
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = rec.ID
	user.CreatedAt = rec.CreatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var rec userRecord
	err := r.kv.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &rec)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var rec userRecord
	err := r.kv.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKey(email)))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getJSON(txn, userKey(string(id)), &rec)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.kv.View(func(txn *badger.Txn) error {
		return scanValues(txn, "user:id:", func(val []byte) error {
			var rec userRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			users = append(users, *rec.toDomain())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (rec userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}
}
