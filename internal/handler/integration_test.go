package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/msomdec/pairchat/internal/domain"
	"github.com/msomdec/pairchat/internal/handler"
	"github.com/msomdec/pairchat/internal/service"
)

type chatsResponse struct {
	Chats []handler.ChatDTO `json:"chats"`
}

type messagesResponse struct {
	Messages []handler.MessageDTO `json:"messages"`
}

type messageResponse struct {
	Message handler.MessageDTO `json:"message"`
}

func sendMessage(t *testing.T, client *http.Client, srvURL, receiverID, content string) *http.Response {
	t.Helper()
	return postJSON(t, client, srvURL+"/api/messages", map[string]string{
		"receiverId": receiverID,
		"content":    content,
		"type":       "text",
	})
}

func TestIntegration_RegisterLoginMeLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	// 1. Register sets the session cookie and hides the password hash.
	resp := postJSON(t, client, srv.URL+"/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "auth_token" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected auth_token cookie after register")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("expected HttpOnly SameSite=Strict cookie, got %+v", cookie)
	}
	if cookie.MaxAge != 7*24*60*60 {
		t.Fatalf("expected cookie MaxAge of seven days, got %d", cookie.MaxAge)
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Fatalf("register response leaks password data: %s", raw)
	}

	// 2. The session identifies the caller.
	resp = get(t, client, srv.URL+"/api/auth/me")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	var me userResponse
	decode(t, resp, &me)
	if me.User.Username != "alice" || me.User.Email != "alice@example.com" {
		t.Fatalf("me: unexpected user %+v", me.User)
	}

	// 3. Logout clears the cookie.
	resp = postJSON(t, client, srv.URL+"/api/auth/logout", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", resp.StatusCode)
	}
	resp = get(t, client, srv.URL+"/api/auth/me")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", resp.StatusCode)
	}

	// 4. Login restores the session.
	resp = postJSON(t, client, srv.URL+"/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var loggedIn userResponse
	decode(t, resp, &loggedIn)
	if loggedIn.User.ID != me.User.ID {
		t.Fatalf("login: expected user %s, got %s", me.User.ID, loggedIn.User.ID)
	}
	resp = get(t, client, srv.URL+"/api/auth/me")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me after login: expected 200, got %d", resp.StatusCode)
	}
}

func TestIntegration_LoginWrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	registerUser(t, client, srv.URL, "alice")

	for _, creds := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "password123"},
	} {
		resp := postJSON(t, newClient(t), srv.URL+"/api/auth/login", creds)
		if resp.StatusCode != http.StatusUnauthorized {
			resp.Body.Close()
			t.Fatalf("login %s: expected 401, got %d", creds["email"], resp.StatusCode)
		}
		if len(resp.Cookies()) != 0 {
			t.Fatalf("login %s: expected no cookie on failure", creds["email"])
		}
		var body errorResponse
		decode(t, resp, &body)
		if body.Error == "" {
			t.Fatal("expected an error message")
		}
	}
}

func TestIntegration_RegisterDuplicateEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	registerUser(t, newClient(t), srv.URL, "alice")

	resp := postJSON(t, newClient(t), srv.URL+"/api/auth/register", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		resp.Body.Close()
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body errorResponse
	decode(t, resp, &body)
	if body.Error != "User with this email already exists" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

func TestIntegration_RegisterValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"short username", map[string]string{"username": "a", "email": "a@example.com", "password": "password123"}, "username"},
		{"bad email", map[string]string{"username": "alice", "email": "not-an-email", "password": "password123"}, "email"},
		{"short password", map[string]string{"username": "alice", "email": "a@example.com", "password": "12345"}, "password"},
		{"password over 72 bytes", map[string]string{"username": "alice", "email": "a@example.com", "password": strings.Repeat("é", 40)}, "72 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, newClient(t), srv.URL+"/api/auth/register", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				resp.Body.Close()
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var body errorResponse
			decode(t, resp, &body)
			if !strings.Contains(body.Error, tt.want) {
				t.Fatalf("expected error mentioning %q, got %q", tt.want, body.Error)
			}
		})
	}
}

func TestIntegration_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST /api/auth/login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIntegration_AliceSaysHiToBob(t *testing.T) {
	srv, _ := newTestServer(t)
	aliceClient := newClient(t)
	bobClient := newClient(t)
	alice := registerUser(t, aliceClient, srv.URL, "alice")
	bob := registerUser(t, bobClient, srv.URL, "bob")

	resp := sendMessage(t, aliceClient, srv.URL, bob.ID, "hi")
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("send: expected 201, got %d", resp.StatusCode)
	}
	var sent messageResponse
	decode(t, resp, &sent)
	if sent.Message.SenderID != alice.ID || sent.Message.ReceiverID != bob.ID {
		t.Fatalf("send: unexpected participants %+v", sent.Message)
	}
	if sent.Message.Type != "text" || sent.Message.ID == "" || sent.Message.Timestamp == "" {
		t.Fatalf("send: expected id, timestamp and type text, got %+v", sent.Message)
	}

	// Bob sees Alice with the message as the latest one.
	resp = get(t, bobClient, srv.URL+"/api/chats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chats: expected 200, got %d", resp.StatusCode)
	}
	var chats chatsResponse
	decode(t, resp, &chats)
	if len(chats.Chats) != 1 {
		t.Fatalf("chats: expected 1 entry, got %d", len(chats.Chats))
	}
	if chats.Chats[0].User.ID != alice.ID {
		t.Fatalf("chats: expected alice, got %+v", chats.Chats[0].User)
	}
	if chats.Chats[0].LastMessage == nil || chats.Chats[0].LastMessage.Content != "hi" {
		t.Fatalf("chats: expected last message \"hi\", got %+v", chats.Chats[0].LastMessage)
	}

	// Bob replies; both sides see the same ordered conversation.
	resp = sendMessage(t, bobClient, srv.URL, alice.ID, "hello alice")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("reply: expected 201, got %d", resp.StatusCode)
	}

	for name, client := range map[string]*http.Client{"alice": aliceClient, "bob": bobClient} {
		partner := bob.ID
		if name == "bob" {
			partner = alice.ID
		}
		resp = get(t, client, srv.URL+"/api/messages?userId="+url.QueryEscape(partner))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s messages: expected 200, got %d", name, resp.StatusCode)
		}
		var msgs messagesResponse
		decode(t, resp, &msgs)
		if len(msgs.Messages) != 2 {
			t.Fatalf("%s messages: expected 2, got %d", name, len(msgs.Messages))
		}
		if msgs.Messages[0].Content != "hi" || msgs.Messages[1].Content != "hello alice" {
			t.Fatalf("%s messages: unexpected order %q, %q", name, msgs.Messages[0].Content, msgs.Messages[1].Content)
		}
	}
}

func TestIntegration_ChatsListEveryOtherUser(t *testing.T) {
	srv, _ := newTestServer(t)
	aliceClient := newClient(t)
	registerUser(t, aliceClient, srv.URL, "alice")
	registerUser(t, newClient(t), srv.URL, "bob")
	carol := registerUser(t, newClient(t), srv.URL, "carol")

	// Contacting carol first puts her ahead of bob.
	resp := sendMessage(t, aliceClient, srv.URL, carol.ID, "hey carol")
	resp.Body.Close()

	resp = get(t, aliceClient, srv.URL+"/api/chats")
	var chats chatsResponse
	decode(t, resp, &chats)

	var names []string
	for _, c := range chats.Chats {
		names = append(names, c.User.Username)
	}
	if strings.Join(names, ",") != "carol,bob" {
		t.Fatalf("expected chats carol,bob, got %v", names)
	}
	if chats.Chats[1].LastMessage != nil {
		t.Fatalf("expected no last message for bob, got %+v", chats.Chats[1].LastMessage)
	}
}

func TestIntegration_SendMessageRejects(t *testing.T) {
	srv, _ := newTestServer(t)
	aliceClient := newClient(t)
	alice := registerUser(t, aliceClient, srv.URL, "alice")
	bob := registerUser(t, newClient(t), srv.URL, "bob")

	tests := []struct {
		name string
		body map[string]string
	}{
		{"unknown receiver", map[string]string{"receiverId": "does-not-exist", "content": "hi"}},
		{"empty content", map[string]string{"receiverId": bob.ID, "content": ""}},
		{"whitespace content", map[string]string{"receiverId": bob.ID, "content": "   \n"}},
		{"missing receiver", map[string]string{"content": "hi"}},
		{"unsupported type", map[string]string{"receiverId": bob.ID, "content": "hi", "type": "image"}},
		{"self", map[string]string{"receiverId": alice.ID, "content": "hi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, aliceClient, srv.URL+"/api/messages", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				resp.Body.Close()
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var body errorResponse
			decode(t, resp, &body)
			if body.Error == "" {
				t.Fatal("expected an error message")
			}
		})
	}

	resp := get(t, aliceClient, srv.URL+"/api/messages?userId="+url.QueryEscape(bob.ID))
	var msgs messagesResponse
	decode(t, resp, &msgs)
	if len(msgs.Messages) != 0 {
		t.Fatalf("expected no stored messages, got %d", len(msgs.Messages))
	}
}

func TestIntegration_ListMessagesRequiresPartner(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)
	registerUser(t, client, srv.URL, "alice")

	resp := get(t, client, srv.URL+"/api/messages")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestIntegration_Unauthenticated(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	for _, path := range []string{"/api/chats", "/api/messages?userId=x", "/api/auth/me"} {
		resp := get(t, client, srv.URL+path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s: expected 401, got %d", path, resp.StatusCode)
		}
	}

	resp := sendMessage(t, client, srv.URL, "x", "hi")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("POST /api/messages: expected 401, got %d", resp.StatusCode)
	}

	resp = get(t, client, srv.URL+"/")
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("GET /: expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("GET /: expected redirect to /login, got %q", loc)
	}
}

func TestIntegration_ChatsForDeletedAccount(t *testing.T) {
	srv, deps := newTestServer(t)
	client := newClient(t)

	// A valid token for a user the store has never seen.
	token, err := deps.Tokens.Issue(&domain.User{ID: "ghost", Username: "ghost", Email: "ghost@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/chats", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("GET /api/chats: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var chats chatsResponse
	decode(t, resp, &chats)
	if len(chats.Chats) != 0 {
		t.Fatalf("expected empty chat list, got %d", len(chats.Chats))
	}
}

func TestIntegration_AuthRateLimited(t *testing.T) {
	deps := newTestDeps(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	deps.AuthLimiter = service.NewTokenBucket(ctx, 0, 2)
	srv := httptest.NewServer(handler.NewHandler(deps))
	defer srv.Close()

	creds := map[string]string{"email": "nobody@example.com", "password": "password123"}
	for i, want := range []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests} {
		resp := postJSON(t, newClient(t), srv.URL+"/api/auth/login", creds)
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("attempt %d: expected %d, got %d", i+1, want, resp.StatusCode)
		}
	}
}

func TestIntegration_Pages(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newClient(t)

	for _, path := range []string{"/login", "/register"} {
		resp := get(t, client, srv.URL+path)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
		if !strings.Contains(string(body), "/api/auth/login") {
			t.Fatalf("GET %s: expected the auth shell", path)
		}
	}

	registerUser(t, client, srv.URL, "alice")
	resp := get(t, client, srv.URL+"/")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /: expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "/chat/chats") {
		t.Fatal("GET /: expected the chat shell")
	}
}
