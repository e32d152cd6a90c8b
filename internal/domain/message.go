package domain

import (
	"context"
	"time"
)

// MessageType tags the kind of payload a message carries.
type MessageType string

const MessageTypeText MessageType = "text"

// Message is a single direct message between two users.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Content    string
	Timestamp  time.Time
	Type       MessageType
}

// Involves reports whether the user sent or received the message.
func (m Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Partner returns the other side of the message from userID's point of view.
func (m Message) Partner(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Create assigns ID and Timestamp. An empty Type defaults to text.
	Create(ctx context.Context, msg *Message) error
	// FindBetween returns every message exchanged by a and b in either
	// direction, oldest first. Equal timestamps are ordered by ID.
	FindBetween(ctx context.Context, a, b string) ([]Message, error)
	// ListByParticipant returns every message sent or received by userID
	// in creation order.
	ListByParticipant(ctx context.Context, userID string) ([]Message, error)
}
