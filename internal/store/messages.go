package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/quillchat/chat-platform/internal/model"
	"github.com/quillchat/chat-platform/pkg/logger"
)

// MessageStore persists the append-only chat message log.
type MessageStore struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewMessageStore creates a new message store.
func NewMessageStore(db *gorm.DB, log *logger.Logger) *MessageStore {
	return &MessageStore{db: db, logger: log}
}

// Append persists one chat turn. The caller is responsible for having
// resolved the conversation for the same user.
func (s *MessageStore) Append(ctx context.Context, msg *model.ChatMessage) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// History returns the user's messages ascending by timestamp. When number
// is non-nil the result is limited to that conversation; the join keeps
// other users' conversations unreachable regardless of the number given.
func (s *MessageStore) History(ctx context.Context, userID uint, number *int) ([]model.HistoryEntry, error) {
	query := s.db.WithContext(ctx).
		Table("chat_messages").
		Select("chat_messages.model, chat_messages.prompt, chat_messages.response, chat_messages.timestamp, conversations.conversation_number").
		Joins("JOIN conversations ON conversations.id = chat_messages.conversation_id").
		Where("chat_messages.user_id = ?", userID)

	if number != nil {
		query = query.Where("conversations.user_id = ? AND conversations.conversation_number = ?", userID, *number)
	}

	entries := []model.HistoryEntry{}
	if err := query.Order("chat_messages.timestamp ASC").Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountBetween counts the user's messages with timestamps in [from, to].
func (s *MessageStore) CountBetween(ctx context.Context, userID uint, from, to time.Time) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("user_id = ? AND timestamp >= ? AND timestamp <= ?", userID, from, to).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
