// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/quillchat/chat-platform/internal/middleware"
	"github.com/quillchat/chat-platform/internal/model"
	"github.com/quillchat/chat-platform/internal/service"
	"github.com/quillchat/chat-platform/pkg/logger"
)

// AuthHandler handles signup, login and refresh endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		logger:  log,
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username != "" {
		if err := middleware.ValidateUsername(req.Username); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	tokens, err := h.service.Signup(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokens)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// Refresh handles POST /auth/refresh. The route requires a refresh-scoped
// token, so the identity in context is already verified.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	tokens, err := h.service.Refresh(r.Context(), username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}
