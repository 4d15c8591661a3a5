package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// TokenBucket 实现令牌桶算法，允许不超过容量的突发。
type TokenBucket struct {
	rate          float64 // 每秒生成的令牌数
	capacity      float64
	tokens        float64
	lastTokenTime time.Time
	mutex         sync.Mutex

	now func() time.Time
}

// NewTokenBucket creates a new TokenBucket starting full.
// rate 为每秒令牌数，capacity 为突发上限（小于 1 时按 1 处理）。
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		rate:          rate,
		capacity:      float64(capacity),
		tokens:        float64(capacity),
		lastTokenTime: time.Now(),
		now:           time.Now,
	}
}

// refill 按流逝时间补充令牌，调用方需持有锁。
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastTokenTime)
	if elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastTokenTime = now
	}
}

// reserve 尝试取走一个令牌；失败时返回需要等待的时间。
func (tb *TokenBucket) reserve() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	if tb.rate <= 0 {
		return false, time.Second
	}
	missing := 1 - tb.tokens
	return false, time.Duration(missing / tb.rate * float64(time.Second))
}

// Allow 检查当前是否有可用令牌。
func (tb *TokenBucket) Allow() bool {
	ok, _ := tb.reserve()
	return ok
}

// Wait 阻塞直到取得令牌或 ctx 结束。
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		ok, delay := tb.reserve()
		if ok {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
