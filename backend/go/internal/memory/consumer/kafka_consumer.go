package consumer

import (
	"HealthMate/backend/go/internal/memory/dispatch"
	"HealthMate/backend/go/internal/models"
	"HealthMate/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageReader 是 *kafka.Reader 中被用到的部分。
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// defaultRetryDelay 是读取失败后重试前的等待时间。
const defaultRetryDelay = time.Second

// KafkaConsumer 从 Kafka 主题读取记忆任务并交给 Processor 处理。
type KafkaConsumer struct {
	reader     MessageReader
	processor  dispatch.Processor
	logger     *logger.Logger
	retryDelay time.Duration
}

// NewKafkaConsumer creates a new KafkaConsumer.
func NewKafkaConsumer(reader MessageReader, processor dispatch.Processor, log *logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:     reader,
		processor:  processor,
		logger:     log,
		retryDelay: defaultRetryDelay,
	}
}

// Run 阻塞消费，直到 ctx 被取消。任务不重试：无论处理结果如何，消息都会被提交。
func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Error("failed to fetch message")
			if !sleepCtx(ctx, c.retryDelay) {
				return nil
			}
			continue
		}

		var task models.MemoryTask
		if err := json.Unmarshal(msg.Value, &task); err != nil {
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Error("failed to unmarshal message")
		} else {
			c.processor.ProcessTask(ctx, task)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Error("failed to commit message")
		}
	}
}

// sleepCtx 等待 d，ctx 先被取消时返回 false。
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
