package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/pairchat/internal/domain"
	"github.com/samber/lo"
)

// ChatService exposes conversations and messages between pairs of users.
type ChatService struct {
	users    domain.UserRepository
	messages domain.MessageRepository
}

// NewChatService creates a new ChatService.
func NewChatService(users domain.UserRepository, messages domain.MessageRepository) *ChatService {
	return &ChatService{users: users, messages: messages}
}

// ListConversations derives the chat list for userID.
//
// Partners who have exchanged messages with the user come first, in the
// order they were first contacted; every other registered user follows in
// registration order. The list is not sorted by recency. Each entry carries
// the latest message of the pair, if any.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	history, err := s.messages.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	contacted := lo.Map(history, func(m domain.Message, _ int) string { return m.Partner(userID) })
	others := lo.FilterMap(users, func(u domain.User, _ int) (string, bool) { return u.ID, u.ID != userID })
	partnerIDs := lo.Uniq(append(contacted, others...))

	// history is in creation order, so on equal timestamps the later
	// message wins.
	last := make(map[string]domain.Message)
	for _, m := range history {
		p := m.Partner(userID)
		if cur, ok := last[p]; !ok || !m.Timestamp.Before(cur.Timestamp) {
			last[p] = m
		}
	}

	byID := lo.KeyBy(users, func(u domain.User) string { return u.ID })
	conversations := make([]domain.Conversation, 0, len(partnerIDs))
	for _, id := range partnerIDs {
		partner, ok := byID[id]
		if !ok {
			continue
		}
		c := domain.Conversation{Partner: partner}
		if m, ok := last[id]; ok {
			c.LastMessage = &m
		}
		conversations = append(conversations, c)
	}
	return conversations, nil
}

// ListMessages returns the conversation between userID and partnerID, oldest
// first.
func (s *ChatService) ListMessages(ctx context.Context, userID, partnerID string) ([]domain.Message, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrInvalidInput)
	}
	messages, err := s.messages.FindBetween(ctx, userID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	return messages, nil
}

// SendMessage stores a message from senderID. The receiver must be another
// registered user.
func (s *ChatService) SendMessage(ctx context.Context, senderID string, in SendInput) (*domain.Message, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.ReceiverID == senderID {
		return nil, fmt.Errorf("%w: cannot send a message to yourself", domain.ErrInvalidInput)
	}

	if _, err := s.users.GetByID(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: receiver does not exist", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("get receiver: %w", err)
	}

	msg := &domain.Message{
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
		Type:       in.Type,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}
