package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quillchat/chat-platform/internal/auth"
	"github.com/quillchat/chat-platform/internal/middleware"
	"github.com/quillchat/chat-platform/internal/model"
	"github.com/quillchat/chat-platform/internal/responder"
	"github.com/quillchat/chat-platform/internal/service"
	"github.com/quillchat/chat-platform/internal/store"
	"github.com/quillchat/chat-platform/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// newTestServer wires the full signup/login/chat surface against a
// throwaway sqlite file, mirroring the production router.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	log := testLogger()
	issuer := auth.NewTokenIssuer("test-secret")
	users := store.NewUserStore(db, log)
	conversations := store.NewConversationStore(db, log)
	messages := store.NewMessageStore(db, log)
	dispatcher := responder.NewDispatcher(responder.LoadMockTable("", log), nil, log)

	authSvc := service.NewAuthService(users, issuer, time.Hour, 24*time.Hour, log)
	chatSvc := service.NewChatService(users, conversations, messages, dispatcher, nil, 20, log)

	authHandler := NewAuthHandler(authSvc, log)
	chatHandler := NewChatHandler(chatSvc, log)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(issuer, auth.ScopeRefresh))
			r.Post("/refresh", authHandler.Refresh)
		})
	})
	r.Route("/chat", func(r chi.Router) {
		r.Use(middleware.Auth(issuer, auth.ScopeAccess))

		r.Post("/", chatHandler.Chat)
		r.Post("/start_conversation", chatHandler.StartConversation)
		r.Get("/history", chatHandler.History)
		r.Get("/conversations", chatHandler.Conversations)
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestSignupChatHistoryFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", model.SignupRequest{
		Email:    "a@example.com",
		Username: "alice",
		Password: "s3cret",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 from signup, got %d", resp.StatusCode)
	}
	tokens := decode[model.TokenPair](t, resp)
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("signup returned incomplete token pair: %+v", tokens)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/chat/start_conversation", tokens.AccessToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 from start_conversation, got %d", resp.StatusCode)
	}
	started := decode[model.StartConversationResponse](t, resp)
	if started.ConversationNumber != 1 {
		t.Fatalf("expected conversation number 1, got %d", started.ConversationNumber)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/chat/", tokens.AccessToken, model.ChatRequest{
		Model:              "gpt",
		Prompt:             "hello",
		ConversationNumber: started.ConversationNumber,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from chat, got %d", resp.StatusCode)
	}
	turn := decode[model.ChatResponse](t, resp)
	if turn.Response != "[GPT] Echo: hello" {
		t.Fatalf("unexpected chat response %q", turn.Response)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/chat/history", tokens.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from history, got %d", resp.StatusCode)
	}
	entries := decode[[]model.HistoryEntry](t, resp)
	if len(entries) != 1 || entries[0].Prompt != "hello" {
		t.Fatalf("unexpected history: %+v", entries)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/chat/conversations", tokens.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from conversations, got %d", resp.StatusCode)
	}
	numbers := decode[[]int](t, resp)
	if len(numbers) != 1 || numbers[0] != 1 {
		t.Fatalf("unexpected conversation list: %v", numbers)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", model.SignupRequest{
		Email:    "a@example.com",
		Username: "alice",
		Password: "s3cret",
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", model.LoginRequest{
		Username: "alice",
		Password: "s3cret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d", resp.StatusCode)
	}
	tokens := decode[model.TokenPair](t, resp)

	resp = doJSON(t, http.MethodPost, ts.URL+"/auth/refresh", tokens.RefreshToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from refresh, got %d", resp.StatusCode)
	}
	refreshed := decode[model.TokenPair](t, resp)
	if refreshed.AccessToken == "" {
		t.Fatalf("refresh returned empty access token")
	}
	if refreshed.RefreshToken != "" {
		t.Fatalf("refresh must not rotate the refresh token")
	}
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", model.SignupRequest{
		Email:    "a@example.com",
		Username: "alice",
		Password: "s3cret",
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", model.LoginRequest{
		Username: "alice",
		Password: "wrong",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 from login with wrong password, got %d", resp.StatusCode)
	}
}

func TestDuplicateSignupReturns409(t *testing.T) {
	ts := newTestServer(t)

	req := model.SignupRequest{
		Email:    "a@example.com",
		Username: "alice",
		Password: "s3cret",
	}
	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", req)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", req)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 from duplicate signup, got %d", resp.StatusCode)
	}
}

func TestChatRejectsWrongTokenScope(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", model.SignupRequest{
		Email:    "a@example.com",
		Username: "alice",
		Password: "s3cret",
	})
	tokens := decode[model.TokenPair](t, resp)

	// Refresh tokens must not open the chat surface.
	resp = doJSON(t, http.MethodPost, ts.URL+"/chat/start_conversation", tokens.RefreshToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for refresh-scoped token, got %d", resp.StatusCode)
	}
}

func TestChatRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/chat/start_conversation", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.StatusCode)
	}
}

func TestChatUnknownConversationReturns404(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/signup", "", model.SignupRequest{
		Email:    "a@example.com",
		Username: "alice",
		Password: "s3cret",
	})
	tokens := decode[model.TokenPair](t, resp)

	resp = doJSON(t, http.MethodPost, ts.URL+"/chat/", tokens.AccessToken, model.ChatRequest{
		Model:              "gpt",
		Prompt:             "hi",
		ConversationNumber: 7,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conversation, got %d", resp.StatusCode)
	}
}
