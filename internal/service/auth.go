package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/quillchat/chat-platform/internal/auth"
	"github.com/quillchat/chat-platform/internal/model"
	"github.com/quillchat/chat-platform/internal/store"
	"github.com/quillchat/chat-platform/pkg/logger"
	"github.com/quillchat/chat-platform/pkg/metrics"
)

// AuthService handles signup, login and token refresh.
type AuthService struct {
	users      *store.UserStore
	issuer     *auth.TokenIssuer
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *logger.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users *store.UserStore,
	issuer *auth.TokenIssuer,
	accessTTL, refreshTTL time.Duration,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     log,
	}
}

// Signup registers a new account and returns a token pair.
func (s *AuthService) Signup(ctx context.Context, req *model.SignupRequest) (*model.TokenPair, error) {
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: missing email, username, or password", ErrValidation)
	}

	if exists, err := s.users.EmailExists(ctx, req.Email); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: email already exists", ErrConflict)
	}
	if exists, err := s.users.UsernameExists(ctx, req.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: username already exists", ErrConflict)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Two signups can race past the existence checks; the unique
		// indexes decide the winner.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email or username already exists", ErrConflict)
		}
		return nil, err
	}

	metrics.SignupsTotal.Inc()
	s.logger.Info("user registered")

	return s.issueTokens(user.Username)
}

// Login authenticates by username and password and returns a token pair.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: missing username or password", ErrValidation)
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, req.Password) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, ErrUnauthorized
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return s.issueTokens(user.Username)
}

// Refresh issues a fresh access token for an identity that presented a
// valid refresh-scoped token.
func (s *AuthService) Refresh(ctx context.Context, username string) (*model.TokenPair, error) {
	accessToken, err := s.issuer.Issue(username, auth.ScopeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	return &model.TokenPair{AccessToken: accessToken}, nil
}

func (s *AuthService) issueTokens(username string) (*model.TokenPair, error) {
	accessToken, err := s.issuer.Issue(username, auth.ScopeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err := s.issuer.Issue(username, auth.ScopeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
