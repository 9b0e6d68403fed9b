package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client OpenAI 相容的 chat completions 客戶端
//
// 視覺辨識（SiliconFlow）與食譜生成（DeepSeek）各建立一個實例。
type Client struct {
	cfg    provider.Config
	client *resty.Client
}

// chatRequest 送往上游的請求本體
type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
	Stop        []string           `json:"stop,omitempty"`
	Stream      bool               `json:"stream"`
}

// chatResponse 上游回應
type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
}

// errorBody 上游錯誤格式
type errorBody struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
	Message string `json:"message"`
}

// APIError 上游回傳非 2xx 狀態
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsAuthError 是否為金鑰或權限錯誤
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NewClient 創建新的 chat completions 客戶端
func NewClient(cfg provider.Config) *Client {
	if cfg.Name == "" {
		cfg.Name = "chat"
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("X-Title", "Recipe Assistant")

	if cfg.MaxRetries > 0 {
		client.
			SetRetryCount(cfg.MaxRetries).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(3 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil || r == nil {
					return false
				}
				return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
			})
	}

	return &Client{cfg: cfg, client: client}
}

// CheckCredentials 確認已設定 API key
func (c *Client) CheckCredentials() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return common.ErrMissingCredentials.Wrap(fmt.Errorf("%s api key is not set", c.cfg.Name))
	}
	return nil
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if err := c.CheckCredentials(); err != nil {
		return nil, err
	}

	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
	}

	common.LogDebug("Sending chat completion request",
		zap.String("endpoint", c.cfg.Name),
		zap.String("model", c.cfg.Model),
		zap.Int("messages", len(req.Messages)),
	)

	var result chatResponse
	var apiErr errorBody
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", c.cfg.Name, err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = apiErr.Message
		}
		if msg == "" {
			msg = sanitizeResponse(resp.Body())
		}
		common.LogError("AI service returned error status",
			zap.String("endpoint", c.cfg.Name),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("response", msg),
		)
		return nil, &APIError{Endpoint: c.cfg.Name, StatusCode: resp.StatusCode(), Message: msg}
	}

	// 上游未標示 JSON content-type 時 resty 不會自動解析
	if len(result.Choices) == 0 && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			return nil, fmt.Errorf("failed to parse %s response: %w (response: %s)", c.cfg.Name, err, sanitizeResponse(resp.Body()))
		}
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in %s response", c.cfg.Name)
	}

	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty content in %s response", c.cfg.Name)
	}

	common.LogDebug("Chat completion received",
		zap.String("endpoint", c.cfg.Name),
		zap.Int("content_length", len(content)),
		zap.String("finish_reason", result.Choices[0].FinishReason),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return &provider.Response{Content: content, Usage: result.Usage}, nil
}

// GetModel 獲取模型名稱
func (c *Client) GetModel() string {
	return c.cfg.Model
}

// GetTimeout 獲取請求超時時間
func (c *Client) GetTimeout() time.Duration {
	return c.cfg.Timeout
}

// Name 端點名稱（vision / generation）
func (c *Client) Name() string {
	return c.cfg.Name
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// sanitizeResponse 清理響應內容，移除圖片數據並截斷過長內容
func sanitizeResponse(body []byte) string {
	s := string(body)
	if strings.Contains(s, "data:image/") || (len(s) > 100 && strings.Contains(s, "base64")) {
		return "[IMAGE_DATA_REMOVED]"
	}
	const maxLen = 500
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
