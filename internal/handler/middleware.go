package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/msomdec/pairchat/internal/domain"
	"github.com/msomdec/pairchat/internal/service"
	"github.com/starfederation/datastar-go/datastar"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// authCookieName is the cookie carrying the session token.
const authCookieName = "auth_token"

// loginPath is where unauthenticated page requests are sent.
const loginPath = "/login"

// publicPrefixes are reachable without a session.
var publicPrefixes = []string{
	"/login",
	"/register",
	"/api/auth/login",
	"/api/auth/register",
	"/healthz",
}

// ClaimsFromContext extracts the authenticated identity from the request context.
// Returns nil if the request passed the gate as a public path.
func ClaimsFromContext(ctx context.Context) *domain.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*domain.Claims)
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *domain.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// Gate is the single authorization point. Every request that is not on a
// public path must carry a valid session cookie; the verified identity is
// attached to the request context for downstream handlers.
type Gate struct {
	tokens *service.TokenService
}

// NewGate creates a Gate verifying sessions with tokens.
func NewGate(tokens *service.TokenService) *Gate {
	return &Gate{tokens: tokens}
}

// Wrap places the gate in front of next.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(authCookieName)
		if err != nil || cookie.Value == "" {
			deny(w, r, "Unauthorized")
			return
		}

		claims, ok := g.tokens.Verify(cookie.Value)
		if !ok {
			deny(w, r, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func isPublicPath(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// deny answers API calls with 401 and sends pages to the login screen.
func deny(w http.ResponseWriter, r *http.Request, reason string) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"):
		writeError(w, http.StatusUnauthorized, reason)
	case isDatastarRequest(r):
		sse := datastar.NewSSE(w, r)
		if err := sse.Redirect(loginPath); err != nil {
			slog.Warn("redirect datastar client to login", "error", err)
		}
	default:
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	}
}

func isDatastarRequest(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events streaming through the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// RequestLogger logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// RateLimit rejects requests from a client IP once its bucket is empty.
func RateLimit(limiter *service.TokenBucket, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "Too many attempts. Please wait and try again.")
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
