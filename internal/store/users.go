package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/quillchat/chat-platform/internal/model"
	"github.com/quillchat/chat-platform/pkg/logger"
)

// UserStore persists user accounts.
type UserStore struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewUserStore creates a new user store.
func NewUserStore(db *gorm.DB, log *logger.Logger) *UserStore {
	return &UserStore{db: db, logger: log}
}

// Create persists a new user. A duplicate email or username surfaces as
// gorm.ErrDuplicatedKey.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// GetByUsername retrieves a user by username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by primary key.
func (s *UserStore) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists reports whether a user with the given email exists.
func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UsernameExists reports whether a user with the given username exists.
func (s *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
