package handler

import (
	_ "embed"
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/msomdec/pairchat/internal/domain"
	"github.com/msomdec/pairchat/internal/service"
	"github.com/starfederation/datastar-go/datastar"
)

var (
	//go:embed static/index.html
	chatShell string
	//go:embed static/login.html
	authShell string
)

// PageHandler serves the browser shells and the Datastar endpoints they drive.
type PageHandler struct {
	chat     *service.ChatService
	chatPage *templ.ComponentHandler
	authPage *templ.ComponentHandler
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(chat *service.ChatService) *PageHandler {
	return &PageHandler{
		chat:     chat,
		chatPage: templ.Handler(templ.Raw(chatShell)),
		authPage: templ.Handler(templ.Raw(authShell)),
	}
}

// HandleChatPage serves the chat shell.
// GET /
func (h *PageHandler) HandleChatPage(w http.ResponseWriter, r *http.Request) {
	h.chatPage.ServeHTTP(w, r)
}

// HandleAuthPage serves the login and registration shell.
// GET /login, GET /register
func (h *PageHandler) HandleAuthPage(w http.ResponseWriter, r *http.Request) {
	h.authPage.ServeHTTP(w, r)
}

// chatSignals is the client state the chat shell posts with each action.
type chatSignals struct {
	PartnerID string `json:"partnerId"`
	Draft     string `json:"draft"`
}

// HandleChats patches the conversation list into the page.
// GET /chat/chats
func (h *PageHandler) HandleChats(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	convs, err := h.chat.ListConversations(r.Context(), claims.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeInternalError(w, r, "list conversations", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.MarshalAndPatchSignals(map[string]any{
		"me":    map[string]string{"id": claims.UserID, "username": claims.Username},
		"chats": toChatDTOs(convs),
	})
}

// HandleMessages patches the open conversation into the page.
// GET /chat/messages
func (h *PageHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var signals chatSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Invalid signals", http.StatusBadRequest)
		return
	}

	messages, err := h.chat.ListMessages(r.Context(), claims.UserID, signals.PartnerID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			http.Error(w, "No conversation selected", http.StatusBadRequest)
			return
		}
		writeInternalError(w, r, "list messages", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.MarshalAndPatchSignals(map[string]any{
		"messages": toMessageDTOs(messages),
	})
}

// HandleSend stores the draft and patches the refreshed conversation.
// POST /chat/send
func (h *PageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var signals chatSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Invalid signals", http.StatusBadRequest)
		return
	}

	_, err := h.chat.SendMessage(r.Context(), claims.UserID, service.SendInput{
		ReceiverID: signals.PartnerID,
		Content:    signals.Draft,
		Type:       domain.MessageTypeText,
	})
	if errors.Is(err, domain.ErrInvalidInput) {
		sse := datastar.NewSSE(w, r)
		sse.MarshalAndPatchSignals(map[string]any{"error": err.Error()})
		return
	}
	if err != nil {
		writeInternalError(w, r, "send message", err)
		return
	}

	messages, err := h.chat.ListMessages(r.Context(), claims.UserID, signals.PartnerID)
	if err != nil {
		writeInternalError(w, r, "list messages", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.MarshalAndPatchSignals(map[string]any{
		"draft":    "",
		"error":    "",
		"messages": toMessageDTOs(messages),
	})
}
