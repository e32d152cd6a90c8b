package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/pairchat/internal/domain"
)

// MessageStore implements domain.MessageRepository in memory.
type MessageStore struct {
	mu       sync.RWMutex
	messages []domain.Message
}

// NewMessageStore creates a new in-memory MessageStore.
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

func (s *MessageStore) Create(ctx context.Context, msg *domain.Message) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate message id: %w", err)
	}
	if msg.Type == "" {
		msg.Type = domain.MessageTypeText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = id.String()
	msg.Timestamp = time.Now().UTC()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *MessageStore) FindBetween(ctx context.Context, a, b string) ([]domain.Message, error) {
	out := s.filter(func(m domain.Message) bool {
		return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
	})
	slices.SortStableFunc(out, func(x, y domain.Message) int {
		if c := x.Timestamp.Compare(y.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(x.ID, y.ID)
	})
	return out, nil
}

func (s *MessageStore) ListByParticipant(ctx context.Context, userID string) ([]domain.Message, error) {
	return s.filter(func(m domain.Message) bool { return m.Involves(userID) }), nil
}

func (s *MessageStore) filter(keep func(domain.Message) bool) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Message
	for _, m := range s.messages {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
