package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、外部API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	// Wait は上限に達している場合に次のウィンドウまで待機します。
	// 待機中にctxがキャンセルされた場合はctxのエラーを返します。
	Wait(ctx context.Context) error
}

// RateLimiterは、固定ウィンドウ方式で操作の頻度を制限します。
// 複数のgoroutineから同時に使用できます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // ウィンドウあたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// reserve は1回分の枠を確保し、必要な待機時間を返します。
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		return 0
	}

	// 次のウィンドウの枠を先取りする
	sleep := rl.interval - now.Sub(rl.lastReset)
	rl.count = 1
	rl.lastReset = rl.lastReset.Add(rl.interval)
	return sleep
}

// Waitはレートリミットの上限に達しているかを確認し、必要であれば待機します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	sleep := rl.reserve()
	if sleep <= 0 {
		return nil
	}

	slog.Warn("rate limit reached, waiting", "limit", rl.limit, "sleep", sleep)
	timer := time.NewTimer(sleep)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
