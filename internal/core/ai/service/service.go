package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"recipe-assistant/internal/core/ai/cache"
	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/core/ai/queue"
	"recipe-assistant/internal/infrastructure/metrics"
	"recipe-assistant/internal/pkg/common"

	"go.uber.org/zap"
)

// Service AI 服務：在 provider 之前加上快取與全域並發限制
type Service struct {
	name     string
	provider provider.Provider
	cache    cache.Store
	queue    *queue.Manager
}

// NewService 創建 AI 服務，store 為 nil 時不使用快取
func NewService(name string, p provider.Provider, store cache.Store, q *queue.Manager) *Service {
	return &Service{
		name:     name,
		provider: p,
		cache:    store,
		queue:    q,
	}
}

// Name 端點名稱
func (s *Service) Name() string {
	return s.name
}

// CheckCredentials 操作開始前確認金鑰
func (s *Service) CheckCredentials() error {
	return s.provider.CheckCredentials()
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if err := s.provider.CheckCredentials(); err != nil {
		return nil, err
	}

	key := ""
	if s.cache != nil {
		var err error
		key, err = s.cacheKey(req)
		if err != nil {
			return nil, err
		}
		if val, err := s.cache.Get(ctx, key); err == nil {
			metrics.AICacheLookups.WithLabelValues(s.name, "hit").Inc()
			common.LogDebug("快取命中", zap.String("endpoint", s.name))
			return &provider.Response{Content: val, CacheHit: true}, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			common.LogWarn("Cache lookup failed", zap.String("endpoint", s.name), zap.Error(err))
		}
		metrics.AICacheLookups.WithLabelValues(s.name, "miss").Inc()
	}

	if s.queue != nil {
		if err := s.queue.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.queue.Release()
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, req)
	duration := time.Since(start)
	common.LogAICall(s.name, s.provider.GetModel(), duration, err)
	metrics.ObserveUpstream(s.name, duration, err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp.Content); err != nil {
			common.LogWarn("Cache store failed", zap.String("endpoint", s.name), zap.Error(err))
		}
	}

	return resp, nil
}

// cacheKey 以模型、訊息與取樣參數組出快取鍵
func (s *Service) cacheKey(req *provider.Request) (string, error) {
	messages, err := common.ToJSON(req.Messages)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	return cache.Key(s.name,
		s.provider.GetModel(),
		messages,
		strconv.Itoa(req.MaxTokens),
		strconv.FormatFloat(req.Temperature, 'f', -1, 64),
		strconv.FormatFloat(req.TopP, 'f', -1, 64),
	), nil
}

// Close 關閉 provider
func (s *Service) Close() error {
	return s.provider.Close()
}
