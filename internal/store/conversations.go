package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/quillchat/chat-platform/internal/model"
	"github.com/quillchat/chat-platform/pkg/logger"
)

// startRetries bounds the retry loop when two requests for the same user
// race for the next conversation number.
const startRetries = 3

// ConversationStore persists per-user conversation threads.
type ConversationStore struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewConversationStore creates a new conversation store.
func NewConversationStore(db *gorm.DB, log *logger.Logger) *ConversationStore {
	return &ConversationStore{db: db, logger: log}
}

// Start creates the user's next conversation. The number is max(existing)+1,
// computed and committed in one transaction; the unique index on
// (user_id, conversation_number) rejects a concurrent duplicate, in which
// case the assignment is retried.
func (s *ConversationStore) Start(ctx context.Context, userID uint) (*model.Conversation, error) {
	for attempt := 0; attempt < startRetries; attempt++ {
		conv := &model.Conversation{UserID: userID}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var next int
			if err := tx.Model(&model.Conversation{}).
				Where("user_id = ?", userID).
				Select("COALESCE(MAX(conversation_number), 0) + 1").
				Scan(&next).Error; err != nil {
				return err
			}
			conv.ConversationNumber = next
			return tx.Create(conv).Error
		})
		if err == nil {
			return conv, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("failed to assign conversation number after %d attempts", startRetries)
}

// Find retrieves a conversation by its per-user number. A conversation
// owned by another user is indistinguishable from a missing one.
func (s *ConversationStore) Find(ctx context.Context, userID uint, number int) (*model.Conversation, error) {
	var conv model.Conversation
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND conversation_number = ?", userID, number).
		First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListNumbers returns the user's conversation numbers, most recently
// created first.
func (s *ConversationStore) ListNumbers(ctx context.Context, userID uint) ([]int, error) {
	numbers := []int{}
	if err := s.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("conversation_number", &numbers).Error; err != nil {
		return nil, err
	}
	return numbers, nil
}
