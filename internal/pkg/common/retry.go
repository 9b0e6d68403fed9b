package common

import (
	"context"
	"errors"
	"net"
	"time"
)

// RetryPolicy 有限次數重試策略
type RetryPolicy struct {
	Attempts int                  // 總嘗試次數（含第一次），小於 1 視為 1
	Timeout  time.Duration        // 單次嘗試的超時，0 表示不另設
	RetryIf  func(err error) bool // 判斷錯誤是否值得重試，nil 表示一律重試
}

// Retry 依策略執行 fn，回傳實際嘗試次數與最後一次的錯誤
//
// 每次嘗試都拿到獨立的超時 context；父 context 結束時立即停止。
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) (int, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		err = runAttempt(ctx, policy.Timeout, fn)
		if err == nil {
			return i, nil
		}
		if ctx.Err() != nil {
			return i, err
		}
		if policy.RetryIf != nil && !policy.RetryIf(err) {
			return i, err
		}
	}
	return attempts, err
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// IsTimeout 判斷錯誤是否為超時
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
