package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/pairchat/internal/domain"
)

// MessageRepository implements domain.MessageRepository using SQLite.
// Timestamps are stored as unix nanoseconds so ordering is numeric.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new SQLite-backed MessageRepository.
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db.SqlDB}
}

const messageColumns = `id, sender_id, receiver_id, content, sent_at, type`

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate message id: %w", err)
	}
	if msg.Type == "" {
		msg.Type = domain.MessageTypeText
	}
	now := time.Now().UTC()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), msg.SenderID, msg.ReceiverID, msg.Content, now.UnixNano(), string(msg.Type),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	msg.ID = id.String()
	msg.Timestamp = now
	return nil
}

func (r *MessageRepository) FindBetween(ctx context.Context, a, b string) ([]domain.Message, error) {
	return r.query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		 ORDER BY sent_at, id`,
		a, b, b, a,
	)
}

func (r *MessageRepository) ListByParticipant(ctx context.Context, userID string) ([]domain.Message, error) {
	return r.query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE sender_id = ? OR receiver_id = ?
		 ORDER BY id`,
		userID, userID,
	)
}

func (r *MessageRepository) query(ctx context.Context, query string, args ...any) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var (
			m      domain.Message
			sentAt int64
			typ    string
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &sentAt, &typ); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Timestamp = time.Unix(0, sentAt).UTC()
		m.Type = domain.MessageType(typ)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
