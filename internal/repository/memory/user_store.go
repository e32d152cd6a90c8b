package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/pairchat/internal/domain"
)

// UserStore implements domain.UserRepository in memory.
type UserStore struct {
	mu      sync.RWMutex
	users   []domain.User
	byEmail map[string]int
	byID    map[string]int
}

// NewUserStore creates a new in-memory UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		byEmail: make(map[string]int),
		byID:    make(map[string]int),
	}
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate user id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return domain.ErrDuplicateEmail
	}

	user.ID = id.String()
	user.CreatedAt = time.Now().UTC()
	s.users = append(s.users, *user)
	s.byEmail[user.Email] = len(s.users) - 1
	s.byID[user.ID] = len(s.users) - 1
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := s.users[i]
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := s.users[i]
	return &u, nil
}

func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out, nil
}
