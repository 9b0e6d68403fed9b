package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 使用者不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser 使用者名稱重複
	ErrDuplicateUser = errors.New("username already exists")
)

// UserRepository 帳號資料存取
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 創建帳號資料存取
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 新增使用者，名稱重複時回傳 ErrDuplicateUser
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return ErrDuplicateUser
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUsername 依名稱取得使用者
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// TouchLastLogin 更新最後登入時間
func (r *UserRepository) TouchLastLogin(ctx context.Context, username string, at time.Time) error {
	return r.update(ctx, username, "last_login", at)
}

// UpdateLanguage 更新偏好語言
func (r *UserRepository) UpdateLanguage(ctx context.Context, username, language string) error {
	return r.update(ctx, username, "preferred_language", language)
}

func (r *UserRepository) update(ctx context.Context, username, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
