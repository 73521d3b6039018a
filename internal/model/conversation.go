package model

import (
	"time"
)

// Conversation represents a conversation thread. Conversation numbers are
// sequential per user, starting at 1, and never reused. Rows are immutable
// once created.
type Conversation struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	UserID             uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_conversation_number"`
	ConversationNumber int       `json:"conversation_number" gorm:"not null;uniqueIndex:idx_user_conversation_number"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// StartConversationResponse is the response after starting a conversation.
type StartConversationResponse struct {
	ConversationNumber int `json:"conversation_number"`
}
