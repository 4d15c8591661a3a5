package service

import (
	"HealthMate/backend/go/internal/health_service/store"
	"HealthMate/backend/go/internal/models"
	"context"
	"strings"
)

type traceKey struct{}

// WithTraceID 把请求的 trace id 放入 ctx，供日志和后台任务使用。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext 返回 ctx 中的 trace id，没有则为空。
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// Service 封装了业务逻辑。
type Service struct {
	store     *store.Store
	generator *Generator
}

// NewService 创建一个新的 Service 实例。
func NewService(s *store.Store, g *Generator) *Service {
	return &Service{store: s, generator: g}
}

// CreateUser 创建一个新的匿名用户。
func (s *Service) CreateUser(ctx context.Context) (*models.User, error) {
	return s.store.CreateUser(ctx)
}

// Chat 校验输入后生成一轮回复。空白字符串视为缺失。
func (s *Service) Chat(ctx context.Context, userID, message string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", &ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if strings.TrimSpace(message) == "" {
		return "", &ValidationError{Field: "message", Message: "must not be empty"}
	}
	return s.generator.Generate(ctx, userID, message)
}

// GetMemory 返回用户的全部事实，按写入顺序排列。
func (s *Service) GetMemory(ctx context.Context, userID string) ([]models.Fact, error) {
	return s.store.ListFacts(ctx, userID)
}
