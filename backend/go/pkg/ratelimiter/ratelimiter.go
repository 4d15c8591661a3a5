package ratelimiter

import "context"

// RateLimiter 限制调用速率。
type RateLimiter interface {
	// Allow 在有可用配额时消耗一个并返回 true。
	Allow() bool
	// Wait 阻塞直到获得配额或 ctx 结束。
	Wait(ctx context.Context) error
}
