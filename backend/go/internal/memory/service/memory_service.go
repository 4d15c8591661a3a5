package service

import (
	"HealthMate/backend/go/internal/memory/extractor"
	"HealthMate/backend/go/internal/models"
	"HealthMate/backend/go/pkg/logger"
	"HealthMate/backend/go/pkg/ratelimiter"
	"context"
)

// FactStore 是记忆服务唯一需要的持久化能力。
type FactStore interface {
	AppendFact(ctx context.Context, userID, content string) error
}

// MemoryService 处理后台记忆提取任务：调用提取器，命中时追加一条事实。
type MemoryService struct {
	extractor extractor.Extractor
	facts     FactStore
	limiter   ratelimiter.RateLimiter
	logger    *logger.Logger
}

// NewMemoryService creates a new MemoryService.
func NewMemoryService(ex extractor.Extractor, facts FactStore, log *logger.Logger) *MemoryService {
	return &MemoryService{
		extractor: ex,
		facts:     facts,
		logger:    log,
	}
}

// WithRateLimiter 限制提取模型的调用速率，nil 表示不限制。
func (s *MemoryService) WithRateLimiter(l ratelimiter.RateLimiter) *MemoryService {
	s.limiter = l
	return s
}

// ProcessTask 执行一次提取。所有错误只记录日志，不重试、不向上返回。
func (s *MemoryService) ProcessTask(ctx context.Context, task models.MemoryTask) {
	log := s.logger.WithTrace(task.TraceID).WithUser(task.UserID)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Warn("memory task dropped while waiting for rate limit")
			return
		}
	}

	fact, ok, err := s.extractor.Extract(ctx, task.Message)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeUpstream}).Error("memory extraction failed")
		return
	}
	if !ok {
		log.Debug("no permanent fact found")
		return
	}

	if err := s.facts.AppendFact(ctx, task.UserID, fact); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeStorage}).Error("failed to save fact")
		return
	}
	log.WithPayload(map[string]interface{}{"fact": fact}).Info("fact saved")
}
