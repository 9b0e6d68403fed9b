package account

import (
	"context"
	"net/http"

	"recipe-assistant/internal/api/handlers"
	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/core/auth"
	"recipe-assistant/internal/repository"

	"github.com/gin-gonic/gin"
)

// Accounts 帳號服務操作
type Accounts interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*repository.User, error)
	Login(ctx context.Context, username, password string) (*auth.Session, error)
	UpdateLanguage(ctx context.Context, username, language string) error
}

// LoginRequest 登入請求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LanguageRequest 偏好語言更新請求
type LanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// Handler 帳號處理程序
type Handler struct {
	accounts Accounts
}

// NewHandler 創建帳號處理程序
func NewHandler(accounts Accounts) *Handler {
	return &Handler{accounts: accounts}
}

// HandleRegister 註冊
func (h *Handler) HandleRegister(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// HandleLogin 登入並取得 token
func (h *Handler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// HandleUpdateLanguage 更新偏好語言
func (h *Handler) HandleUpdateLanguage(c *gin.Context) {
	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, err)
		return
	}

	username := middleware.Username(c)
	if err := h.accounts.UpdateLanguage(c.Request.Context(), username, req.Language); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "preferred_language": req.Language})
}
