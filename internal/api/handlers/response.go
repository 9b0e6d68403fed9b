package handlers

import (
	"context"
	"errors"
	"net/http"

	"recipe-assistant/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 將錯誤轉為統一的錯誤回應
//
// CustomError 使用自身的狀態碼與代碼，驗證錯誤回傳 400，
// 其餘一律視為 500。Details 只在 debug 模式輸出。
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status, resp := errorResponse(err)
	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		resp.Details = err.Error()
	}

	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Get(c)),
		)
	}

	c.AbortWithStatusJSON(status, resp)
}

func errorResponse(err error) (int, common.ErrorResponse) {
	if ce, ok := common.AsCustomError(err); ok {
		return ce.Status, common.ErrorResponse{Code: ce.Code, Message: ce.Message}
	}
	if common.IsValidationError(err) {
		return http.StatusBadRequest, common.ErrorResponse{Code: common.ErrCodeInvalidRequest, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, common.ErrorResponse{Code: common.ErrCodeGatewayTimeout, Message: common.ErrGatewayTimeout.Message}
	}
	return http.StatusInternalServerError, common.ErrorResponse{Code: common.ErrCodeInternalError, Message: common.ErrInternalError.Message}
}

// BadRequest 回傳請求格式錯誤
func BadRequest(c *gin.Context, err error) {
	RespondError(c, common.ErrInvalidRequest.Wrap(err))
}
