package models

import "time"

// MemoryTask 是一次后台记忆提取任务，通过 goroutine、Kafka 或 Redis 分发。
type MemoryTask struct {
	UserID     string    `json:"user"`
	Message    string    `json:"message"`
	TraceID    string    `json:"traceId,omitempty"`
	CreateTime time.Time `json:"createTime"`
}
