package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/pairchat/internal/service"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Auth         *service.AuthService
	Chat         *service.ChatService
	Tokens       *service.TokenService
	AuthLimiter  *service.TokenBucket
	SessionTTL   time.Duration
	CookieSecure bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, deps Deps) {
	authHandler := NewAuthHandler(deps.Auth, deps.SessionTTL, deps.CookieSecure)
	chatHandler := NewChatHandler(deps.Chat)
	pageHandler := NewPageHandler(deps.Chat)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// JSON API
	mux.HandleFunc("POST /api/auth/register", RateLimit(deps.AuthLimiter, authHandler.HandleRegister))
	mux.HandleFunc("POST /api/auth/login", RateLimit(deps.AuthLimiter, authHandler.HandleLogin))
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.HandleFunc("GET /api/auth/me", authHandler.HandleMe)
	mux.HandleFunc("GET /api/chats", chatHandler.HandleListChats)
	mux.HandleFunc("GET /api/messages", chatHandler.HandleListMessages)
	mux.HandleFunc("POST /api/messages", chatHandler.HandleSendMessage)

	// Pages
	mux.HandleFunc("GET /{$}", pageHandler.HandleChatPage)
	mux.HandleFunc("GET /login", pageHandler.HandleAuthPage)
	mux.HandleFunc("GET /register", pageHandler.HandleAuthPage)
	mux.HandleFunc("GET /chat/chats", pageHandler.HandleChats)
	mux.HandleFunc("GET /chat/messages", pageHandler.HandleMessages)
	mux.HandleFunc("POST /chat/send", pageHandler.HandleSend)
}

// NewHandler builds the full middleware chain around a fresh mux. Every
// request passes the gate before it reaches a route.
func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return SecurityHeaders(RequestLogger(NewGate(deps.Tokens).Wrap(mux)))
}
