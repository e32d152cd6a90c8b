package badgerdb

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/msomdec/pairchat/internal/domain"
)

// MessageRepository implements domain.MessageRepository on Badger.
type MessageRepository struct {
	kv *badger.DB
	collection
}

type messageRecord struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
}

func messageKey(id string) string { return "msg:" + id }

// pairPrefix is symmetric in its arguments.
func pairPrefix(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "msg-pair:" + a + ":" + b + ":"
}

func participantPrefix(userID string) string { return "msg-user:" + userID + ":" }

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate message id: %w", err)
	}
	if msg.Type == "" {
		msg.Type = domain.MessageTypeText
	}
	rec := messageRecord{
		ID:         id.String(),
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		Timestamp:  time.Now().UTC(),
		Type:       string(msg.Type),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.kv.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, messageKey(rec.ID), rec); err != nil {
			return err
		}
		pairKey := fmt.Sprintf("%s%019d:%s", pairPrefix(rec.SenderID, rec.ReceiverID), rec.Timestamp.UnixNano(), rec.ID)
		if err := txn.Set([]byte(pairKey), []byte(rec.ID)); err != nil {
			return err
		}
		for _, userID := range []string{rec.SenderID, rec.ReceiverID} {
			if err := txn.Set([]byte(participantPrefix(userID)+rec.ID), []byte(rec.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	msg.ID = rec.ID
	msg.Timestamp = rec.Timestamp
	return nil
}

func (r *MessageRepository) FindBetween(ctx context.Context, a, b string) ([]domain.Message, error) {
	messages, err := r.resolve(pairPrefix(a, b))
	if err != nil {
		return nil, fmt.Errorf("find messages between users: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Message, error) {
	messages, err := r.resolve(participantPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("list messages by participant: %w", err)
	}
	return messages, nil
}

// resolve follows every index entry under prefix to its message record.
func (r *MessageRepository) resolve(prefix string) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.kv.View(func(txn *badger.Txn) error {
		var ids []string
		err := scanValues(txn, prefix, func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			var rec messageRecord
			if err := getJSON(txn, messageKey(id), &rec); err != nil {
				return err
			}
			messages = append(messages, rec.toDomain())
		}
		return nil
	})
	return messages, err
}

func (rec messageRecord) toDomain() domain.Message {
	return domain.Message{
		ID:         rec.ID,
		SenderID:   rec.SenderID,
		ReceiverID: rec.ReceiverID,
		Content:    rec.Content,
		Timestamp:  rec.Timestamp,
		Type:       domain.MessageType(rec.Type),
	}
}
