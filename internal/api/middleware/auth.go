package middleware

import (
	"net/http"
	"strings"

	"recipe-assistant/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

const usernameKey = "username"

// TokenParser 驗證 token 並回傳使用者名稱
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// RequireAuth 要求 Bearer token，通過後將使用者名稱存入 context
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.ErrorResponse{
				Code:    common.ErrCodeUnauthorized,
				Message: "missing or malformed authorization header",
			})
			return
		}

		username, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.ErrorResponse{
				Code:    common.ErrCodeUnauthorized,
				Message: common.ErrUnauthorized.Message,
			})
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

// Username 取得已驗證的使用者名稱，未驗證時為空字串
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}
