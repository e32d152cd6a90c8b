package handler

import (
	"time"

	"github.com/msomdec/pairchat/internal/domain"
)

// UserDTO is the JSON representation of a user. It never carries the
// password hash.
type UserDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// MessageDTO is the JSON representation of a message.
type MessageDTO struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	Type       string `json:"type"`
}

func toMessageDTO(m *domain.Message) MessageDTO {
	return MessageDTO{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Timestamp:  m.Timestamp.UTC().Format(time.RFC3339Nano),
		Type:       string(m.Type),
	}
}

func toMessageDTOs(messages []domain.Message) []MessageDTO {
	dtos := make([]MessageDTO, len(messages))
	for i := range messages {
		dtos[i] = toMessageDTO(&messages[i])
	}
	return dtos
}

// ChatDTO is one entry of the conversation list.
type ChatDTO struct {
	User        UserDTO     `json:"user"`
	LastMessage *MessageDTO `json:"lastMessage,omitempty"`
}

func toChatDTOs(convs []domain.Conversation) []ChatDTO {
	dtos := make([]ChatDTO, len(convs))
	for i := range convs {
		dtos[i] = ChatDTO{User: toUserDTO(&convs[i].Partner)}
		if m := convs[i].LastMessage; m != nil {
			dto := toMessageDTO(m)
			dtos[i].LastMessage = &dto
		}
	}
	return dtos
}
