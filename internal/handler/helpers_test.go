package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/pairchat/internal/handler"
	"github.com/msomdec/pairchat/internal/repository/sqlite"
	"github.com/msomdec/pairchat/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

func newTestDeps(t *testing.T) handler.Deps {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tokens := service.NewTokenService(testJWTSecret, service.DefaultSessionTTL)
	return handler.Deps{
		Auth:        service.NewAuthService(db.Users(), tokens, 4),
		Chat:        service.NewChatService(db.Users(), db.Messages()),
		Tokens:      tokens,
		AuthLimiter: service.NewTokenBucket(ctx, 1, 1000),
		SessionTTL:  service.DefaultSessionTTL,
	}
}

func newTestServer(t *testing.T) (*httptest.Server, handler.Deps) {
	t.Helper()
	deps := newTestDeps(t)
	srv := httptest.NewServer(handler.NewHandler(deps))
	t.Cleanup(srv.Close)
	return srv, deps
}

// newClient returns a client with its own cookie jar that does not follow
// redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func get(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// decode reads a JSON response body into dst and closes it.
func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

type userResponse struct {
	User handler.UserDTO `json:"user"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// registerUser registers through the API and returns the created user. The
// client's jar holds the session afterwards.
func registerUser(t *testing.T, client *http.Client, srvURL, username string) handler.UserDTO {
	t.Helper()
	resp := postJSON(t, client, srvURL+"/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("register %s: expected 201, got %d", username, resp.StatusCode)
	}
	var body userResponse
	decode(t, resp, &body)
	return body.User
}
