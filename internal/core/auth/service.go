package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"
	"recipe-assistant/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	DemoUsername = "demo"
	DemoPassword = "demo123"
)

// UserStore 帳號儲存介面
type UserStore interface {
	Create(ctx context.Context, user *repository.User) error
	GetByUsername(ctx context.Context, username string) (*repository.User, error)
	TouchLastLogin(ctx context.Context, username string, at time.Time) error
	UpdateLanguage(ctx context.Context, username, language string) error
}

// RegisterRequest 註冊資料
type RegisterRequest struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	Email             string `json:"email"`
	PreferredLanguage string `json:"preferred_language"`
}

// Session 登入結果
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *repository.User `json:"user"`
}

// Service 帳號服務
type Service struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService 創建帳號服務
func NewService(users UserStore, cfg config.AuthConfig) *Service {
	return &Service{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Register 建立帳號
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*repository.User, error) {
	username := strings.TrimSpace(req.Username)
	if len([]rune(username)) < minUsernameLength {
		return nil, common.NewValidationError(fmt.Sprintf("username must be at least %d characters", minUsernameLength))
	}
	if len(req.Password) < minPasswordLength {
		return nil, common.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	language := strings.TrimSpace(req.PreferredLanguage)
	if language == "" {
		language = common.DefaultLanguage
	}

	user := &repository.User{
		Username:          username,
		PasswordHash:      string(hash),
		Email:             strings.TrimSpace(req.Email),
		PreferredLanguage: language,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, common.ErrUserExists.Wrap(err)
		}
		return nil, err
	}

	common.LogInfo("使用者註冊", zap.String("username", username))
	return user, nil
}

// Login 驗證密碼並簽發 token
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.Username, now); err != nil {
		common.LogWarn("更新登入時間失敗", zap.String("username", user.Username), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	token, expiresAt, err := s.issueToken(user.Username, now)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) issueToken(username string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken 驗證 token 並回傳使用者名稱
func (s *Service) ParseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", common.ErrUnauthorized.Wrap(err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", common.ErrUnauthorized
	}
	return claims.Subject, nil
}

// UpdateLanguage 更新偏好語言
func (s *Service) UpdateLanguage(ctx context.Context, username, language string) error {
	language = strings.TrimSpace(language)
	if language == "" {
		return common.NewValidationError("language is required")
	}
	if err := s.users.UpdateLanguage(ctx, username, language); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return common.ErrNotFound.Wrap(err)
		}
		return err
	}
	return nil
}

// EnsureDemoUser 建立示範帳號，已存在時略過
func (s *Service) EnsureDemoUser(ctx context.Context) error {
	_, err := s.users.GetByUsername(ctx, DemoUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	_, err = s.Register(ctx, RegisterRequest{Username: DemoUsername, Password: DemoPassword})
	if err != nil && !errors.Is(err, common.ErrUserExists) {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}
	return nil
}
