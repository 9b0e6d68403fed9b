package queue

import (
	"context"
	"sync/atomic"

	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	InFlight       int `json:"in_flight"`
	ProcessedCount int `json:"processed_count"`
	RejectedCount  int `json:"rejected_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 限制同時送往上游的 AI 請求數量
//
// 最多 Workers 個請求同時進行，其餘最多 MaxSize 個排隊等待，超過即拒絕。
type Manager struct {
	cfg       config.QueueConfig
	sem       *semaphore.Weighted
	waiting   int64
	inFlight  int64
	processed int64
	rejected  int64
}

// NewManager 創建新的隊列管理器
func NewManager(cfg config.QueueConfig) *Manager {
	return &Manager{
		cfg: cfg,
		sem: semaphore.NewWeighted(int64(cfg.Workers)),
	}
}

// Acquire 取得一個上游請求名額，必須搭配 Release
func (m *Manager) Acquire(ctx context.Context) error {
	if m.sem.TryAcquire(1) {
		atomic.AddInt64(&m.inFlight, 1)
		return nil
	}

	if atomic.AddInt64(&m.waiting, 1) > int64(m.cfg.MaxSize) {
		atomic.AddInt64(&m.waiting, -1)
		atomic.AddInt64(&m.rejected, 1)
		common.LogWarn("AI request queue is full",
			zap.Int("max_queue_size", m.cfg.MaxSize),
			zap.Int("workers", m.cfg.Workers),
		)
		return common.ErrQueueFull
	}
	defer atomic.AddInt64(&m.waiting, -1)

	if err := m.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	atomic.AddInt64(&m.inFlight, 1)
	return nil
}

// Release 歸還名額並累計處理數
func (m *Manager) Release() {
	atomic.AddInt64(&m.inFlight, -1)
	atomic.AddInt64(&m.processed, 1)
	m.sem.Release(1)
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    int(atomic.LoadInt64(&m.waiting)),
		InFlight:       int(atomic.LoadInt64(&m.inFlight)),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		RejectedCount:  int(atomic.LoadInt64(&m.rejected)),
		MaxQueueSize:   m.cfg.MaxSize,
		Workers:        m.cfg.Workers,
	}
}
