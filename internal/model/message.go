package model

import (
	"time"
)

// ChatMessage is one persisted chat turn: the user's prompt and the
// responder's text. Rows are append-only and never updated or deleted.
type ChatMessage struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"not null;index"`
	ConversationID uint      `json:"conversation_id" gorm:"not null;index"`
	Model          string    `json:"model" gorm:"not null"`
	Prompt         string    `json:"prompt" gorm:"not null"`
	Response       string    `json:"response" gorm:"not null"`
	Timestamp      time.Time `json:"timestamp" gorm:"not null;index"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// ChatRequest is the request for one chat turn.
type ChatRequest struct {
	Model              string `json:"model"`
	Prompt             string `json:"prompt"`
	ConversationNumber int    `json:"conversation_number"`
}

// ChatResponse is the response for one chat turn.
type ChatResponse struct {
	Model              string    `json:"model"`
	Prompt             string    `json:"prompt"`
	Response           string    `json:"response"`
	Timestamp          time.Time `json:"timestamp"`
	PromptTokens       int       `json:"prompt_tokens"`
	ResponseTokens     int       `json:"response_tokens"`
	ConversationNumber int       `json:"conversation_number"`
}

// HistoryEntry is one message record in a history listing.
type HistoryEntry struct {
	Model              string    `json:"model"`
	Prompt             string    `json:"prompt"`
	Response           string    `json:"response"`
	Timestamp          time.Time `json:"timestamp"`
	ConversationNumber int       `json:"conversation_number"`
}
