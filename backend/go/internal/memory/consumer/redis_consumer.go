package consumer

import (
	"HealthMate/backend/go/internal/memory/dispatch"
	"HealthMate/backend/go/internal/models"
	"HealthMate/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ListPopper 是 *redis.Client 中被用到的部分。
type ListPopper interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// RedisConsumer 通过 BRPOP 从 Redis 列表读取记忆任务。
type RedisConsumer struct {
	client     ListPopper
	key        string
	timeout    time.Duration
	processor  dispatch.Processor
	logger     *logger.Logger
	retryDelay time.Duration
}

// NewRedisConsumer creates a new RedisConsumer. BRPOP 每次最多阻塞 5 秒，以便及时响应取消。
func NewRedisConsumer(client ListPopper, key string, processor dispatch.Processor, log *logger.Logger) *RedisConsumer {
	return &RedisConsumer{
		client:     client,
		key:        key,
		timeout:    5 * time.Second,
		processor:  processor,
		logger:     log,
		retryDelay: defaultRetryDelay,
	}
}

// Run 阻塞消费，直到 ctx 被取消。
func (c *RedisConsumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := c.client.BRPop(ctx, c.timeout, c.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Error("failed to pop memory task")
			// 避免 Redis 不可用时空转。
			if !sleepCtx(ctx, c.retryDelay) {
				return nil
			}
			continue
		}
		// BRPOP 返回 [key, value]。
		if len(res) != 2 {
			continue
		}

		var task models.MemoryTask
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Error("failed to unmarshal memory task")
			continue
		}
		c.processor.ProcessTask(ctx, task)
	}
}
