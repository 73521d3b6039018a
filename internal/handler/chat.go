package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quillchat/chat-platform/internal/middleware"
	"github.com/quillchat/chat-platform/internal/model"
	"github.com/quillchat/chat-platform/internal/service"
	"github.com/quillchat/chat-platform/pkg/logger"
)

// ChatHandler handles the chat endpoints.
type ChatHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		logger:  log,
	}
}

// StartConversation handles POST /chat/start_conversation
func (h *ChatHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	number, err := h.service.StartConversation(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.StartConversationResponse{
		ConversationNumber: number,
	})
}

// Chat handles POST /chat/
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Prompt != "" {
		if err := middleware.ValidatePrompt(req.Prompt); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.service.Chat(r.Context(), username, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /chat/history?conversation_number=
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	var number *int
	if raw := r.URL.Query().Get("conversation_number"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid conversation_number")
			return
		}
		number = &parsed
	}

	entries, err := h.service.History(r.Context(), username, number)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Conversations handles GET /chat/conversations
func (h *ChatHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	numbers, err := h.service.ListConversations(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, numbers)
}
