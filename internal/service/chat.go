package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quillchat/chat-platform/internal/events"
	"github.com/quillchat/chat-platform/internal/model"
	"github.com/quillchat/chat-platform/internal/responder"
	"github.com/quillchat/chat-platform/internal/store"
	"github.com/quillchat/chat-platform/pkg/logger"
	"github.com/quillchat/chat-platform/pkg/metrics"
)

// ChatService handles the quota, ledger, dispatch and append sequence for
// chat turns, plus the history and listing queries.
type ChatService struct {
	users         *store.UserStore
	conversations *store.ConversationStore
	messages      *store.MessageStore
	dispatcher    *responder.Dispatcher
	publisher     *events.Publisher
	dailyLimit    int
	logger        *logger.Logger

	// now is swapped in tests to cross the UTC-day boundary.
	now func() time.Time
}

// NewChatService creates a new chat service. publisher may be nil.
func NewChatService(
	users *store.UserStore,
	conversations *store.ConversationStore,
	messages *store.MessageStore,
	dispatcher *responder.Dispatcher,
	publisher *events.Publisher,
	dailyLimit int,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		users:         users,
		conversations: conversations,
		messages:      messages,
		dispatcher:    dispatcher,
		publisher:     publisher,
		dailyLimit:    dailyLimit,
		logger:        log,
		now:           time.Now,
	}
}

// StartConversation opens the user's next conversation and returns its
// number.
func (s *ChatService) StartConversation(ctx context.Context, username string) (int, error) {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return 0, err
	}
	if err := s.checkQuota(ctx, user.ID); err != nil {
		return 0, err
	}

	conv, err := s.conversations.Start(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to start conversation: %w", err)
	}

	metrics.ConversationsTotal.Inc()
	return conv.ConversationNumber, nil
}

// Chat runs one chat turn: quota check, conversation lookup, responder
// dispatch, append. The responder never fails the turn; external errors
// arrive here already downgraded to text.
func (s *ChatService) Chat(ctx context.Context, username string, req *model.ChatRequest) (*model.ChatResponse, error) {
	if req.Model == "" || req.Prompt == "" || req.ConversationNumber == 0 {
		return nil, fmt.Errorf("%w: missing model, prompt, or conversation_number", ErrValidation)
	}

	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.checkQuota(ctx, user.ID); err != nil {
		return nil, err
	}

	conv, err := s.conversations.Find(ctx, user.ID, req.ConversationNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: conversation not found", ErrNotFound)
		}
		return nil, err
	}

	dispatchStart := s.now()
	response := s.dispatcher.Respond(ctx, req.Model, req.Prompt)

	promptTokens := responder.EstimateTokens(req.Prompt)
	responseTokens := responder.EstimateTokens(response)
	timestamp := s.now().UTC()

	msg := &model.ChatMessage{
		UserID:         user.ID,
		ConversationID: conv.ID,
		Model:          req.Model,
		Prompt:         req.Prompt,
		Response:       response,
		Timestamp:      timestamp,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	metrics.RecordChatTurn(
		strings.ToLower(req.Model),
		s.now().Sub(dispatchStart).Seconds(),
		promptTokens,
		responseTokens,
	)
	s.publisher.PublishTurn(ctx, &events.ChatTurnEvent{
		Username:           username,
		ConversationNumber: req.ConversationNumber,
		Model:              req.Model,
		PromptTokens:       promptTokens,
		ResponseTokens:     responseTokens,
		Timestamp:          timestamp,
	})

	return &model.ChatResponse{
		Model:              req.Model,
		Prompt:             req.Prompt,
		Response:           response,
		Timestamp:          timestamp,
		PromptTokens:       promptTokens,
		ResponseTokens:     responseTokens,
		ConversationNumber: req.ConversationNumber,
	}, nil
}

// History returns the user's messages ascending by timestamp, limited to
// one conversation when number is non-nil.
func (s *ChatService) History(ctx context.Context, username string, number *int) ([]model.HistoryEntry, error) {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.messages.History(ctx, user.ID, number)
}

// ListConversations returns the user's conversation numbers, newest first.
func (s *ChatService) ListConversations(ctx context.Context, username string) ([]int, error) {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.conversations.ListNumbers(ctx, user.ID)
}

// checkQuota denies the turn once the user has reached the daily cap. The
// window is the current UTC calendar day; no sliding window.
func (s *ChatService) checkQuota(ctx context.Context, userID uint) error {
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	count, err := s.messages.CountBetween(ctx, userID, startOfDay, now)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}
	if count >= int64(s.dailyLimit) {
		metrics.QuotaDenialsTotal.Inc()
		return ErrQuotaExceeded
	}
	return nil
}

func (s *ChatService) resolveUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}
