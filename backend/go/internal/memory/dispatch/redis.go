package dispatch

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ListPusher 是 *redis.Client 中被用到的部分。
type ListPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisDispatcher 把任务 LPUSH 到 Redis 列表，worker 通过 BRPOP 取出。
// 推送本身在后台 goroutine 中完成，不占用请求路径。
type RedisDispatcher struct {
	client  ListPusher
	key     string
	onError func(task models.MemoryTask, err error)
	wg      sync.WaitGroup
}

// NewRedisDispatcher creates a new RedisDispatcher. onError may be nil.
func NewRedisDispatcher(client ListPusher, key string, onError func(task models.MemoryTask, err error)) *RedisDispatcher {
	return &RedisDispatcher{client: client, key: key, onError: onError}
}

// Dispatch 序列化任务并异步推送。
func (d *RedisDispatcher) Dispatch(ctx context.Context, task models.MemoryTask) error {
	value, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal memory task: %w", err)
	}
	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.client.LPush(bg, d.key, value).Err(); err != nil && d.onError != nil {
			d.onError(task, err)
		}
	}()
	return nil
}

// Close 等待尚未完成的推送。
func (d *RedisDispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("redis pushes still pending at shutdown: %w", ctx.Err())
	}
}
