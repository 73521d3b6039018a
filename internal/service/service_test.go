package service

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/quillchat/chat-platform/internal/auth"
	"github.com/quillchat/chat-platform/internal/responder"
	"github.com/quillchat/chat-platform/internal/store"
	"github.com/quillchat/chat-platform/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := store.Open("", path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := store.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newAuthService(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	return NewAuthService(
		store.NewUserStore(db, testLogger()),
		auth.NewTokenIssuer("test-secret"),
		time.Hour,
		24*time.Hour,
		testLogger(),
	)
}

func newChatService(t *testing.T, db *gorm.DB, dailyLimit int) *ChatService {
	t.Helper()
	dispatcher := responder.NewDispatcher(responder.LoadMockTable("", testLogger()), nil, testLogger())
	return NewChatService(
		store.NewUserStore(db, testLogger()),
		store.NewConversationStore(db, testLogger()),
		store.NewMessageStore(db, testLogger()),
		dispatcher,
		nil,
		dailyLimit,
		testLogger(),
	)
}
