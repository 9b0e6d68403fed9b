package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-assistant/internal/core/ai/queue"
	"recipe-assistant/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Upstream  map[string]bool        `json:"upstream_configured,omitempty"`
}

// Pinger 就緒檢查依賴
type Pinger func(ctx context.Context) error

// QueueStatus 回傳上游隊列狀態
type QueueStatus interface {
	GetQueueStatus() *queue.Status
}

// CredentialChecker 上游金鑰檢查
type CredentialChecker interface {
	Name() string
	CheckCredentials() error
}

// Handler 健康檢查處理程序
type Handler struct {
	version  string
	queue    QueueStatus
	upstream []CredentialChecker
	checks   map[string]Pinger
}

// NewHandler 創建健康檢查處理程序
func NewHandler(version string, q QueueStatus, checks map[string]Pinger, upstream ...CredentialChecker) *Handler {
	return &Handler{
		version:  version,
		queue:    q,
		upstream: upstream,
		checks:   checks,
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		response.Queue = h.queue.GetQueueStatus()
	}
	if len(h.upstream) > 0 {
		response.Upstream = make(map[string]bool, len(h.upstream))
		for _, u := range h.upstream {
			response.Upstream[u.Name()] = u.CheckCredentials() == nil
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，任一依賴失敗即回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			common.LogWarn("Readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = err.Error()
			ready = false
			continue
		}
		results[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": results,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
