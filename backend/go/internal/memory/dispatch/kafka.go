package dispatch

import (
	"HealthMate/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// MessageWriter 是 *kafka.Writer 中被用到的部分。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher 将任务以 JSON 发布到 Kafka 主题，由 worker 进程消费。
type KafkaDispatcher struct {
	writer MessageWriter
}

// NewKafkaDispatcher 包装一个 writer。生产环境应传入 Async 模式的 *kafka.Writer，
// 这样 Dispatch 不会阻塞请求。
func NewKafkaDispatcher(w MessageWriter) *KafkaDispatcher {
	return &KafkaDispatcher{writer: w}
}

// Dispatch 以用户 ID 作为消息 key，同一用户的任务落在同一分区。
func (d *KafkaDispatcher) Dispatch(ctx context.Context, task models.MemoryTask) error {
	value, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal memory task: %w", err)
	}
	msg := kafka.Message{Key: []byte(task.UserID), Value: value}
	if err := d.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		return fmt.Errorf("failed to publish memory task: %w", err)
	}
	return nil
}

// Close 刷新并关闭 writer。
func (d *KafkaDispatcher) Close(context.Context) error {
	return d.writer.Close()
}
