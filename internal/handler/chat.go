package handler

import (
	"errors"
	"net/http"

	"github.com/msomdec/pairchat/internal/domain"
	"github.com/msomdec/pairchat/internal/service"
)

// ChatHandler serves the conversation and message API.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// HandleListChats returns the caller's conversation list.
// GET /api/chats
// Response: {"chats": [{"user": {...}, "lastMessage": {...}}]}
func (h *ChatHandler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	convs, err := h.chat.ListConversations(r.Context(), claims.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeInternalError(w, r, "list conversations", err)
		return
	}

	// A token whose user no longer exists simply has nobody to talk to.
	writeJSON(w, http.StatusOK, map[string]any{
		"chats": toChatDTOs(convs),
	})
}

// HandleListMessages returns the conversation with one partner, oldest first.
// GET /api/messages?userId={partnerId}
// Response: {"messages": [...]}
func (h *ChatHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	partnerID := r.URL.Query().Get("userId")
	if partnerID == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	messages, err := h.chat.ListMessages(r.Context(), claims.UserID, partnerID)
	if err != nil {
		writeInternalError(w, r, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": toMessageDTOs(messages),
	})
}

// HandleSendMessage stores a message from the caller.
// POST /api/messages
// Request:  {"receiverId":"...","content":"...","type":"text"}
// Response: 201 {"message": {...}}
func (h *ChatHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req service.SendInput
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	msg, err := h.chat.SendMessage(r.Context(), claims.UserID, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, r, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": toMessageDTO(msg),
	})
}
