package main

import (
	"HealthMate/backend/go/internal/config"
	"HealthMate/backend/go/internal/database/kafka"
	"HealthMate/backend/go/internal/database/mysql"
	"HealthMate/backend/go/internal/database/redis"
	"HealthMate/backend/go/internal/database/sqlite"
	"HealthMate/backend/go/internal/health_service/store"
	"HealthMate/backend/go/internal/llm"
	"HealthMate/backend/go/internal/memory/dispatch"
	"HealthMate/backend/go/internal/memory/extractor"
	"HealthMate/backend/go/internal/memory/service"
	"HealthMate/backend/go/internal/models"
	"HealthMate/backend/go/pkg/circuitbreaker"
	httpclient "HealthMate/backend/go/pkg/http"
	"HealthMate/backend/go/pkg/logger"
	"HealthMate/backend/go/pkg/ratelimiter"
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// app 持有一个子命令运行期间共享的配置与日志。
type app struct {
	cfg *config.AppConfig
	log *logger.Logger
}

func loadApp(component string) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	return &app{cfg: cfg, log: logger.New(component, "", "")}, nil
}

// openDB 按配置的驱动打开数据库。
func (a *app) openDB() (*gorm.DB, error) {
	switch a.cfg.Databases.Driver {
	case config.DriverMySQL:
		return mysql.GetDB(&a.cfg.Databases.MySQL)
	default:
		return sqlite.Open(a.cfg.Databases.SQLite.Path)
	}
}

func (a *app) closeDB(db *gorm.DB) {
	if a.cfg.Databases.Driver == config.DriverMySQL {
		_ = mysql.Close()
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	db, err := a.openDB()
	if err != nil {
		return nil, nil, err
	}
	s := store.NewStore(db)
	if err := s.Migrate(ctx); err != nil {
		a.closeDB(db)
		return nil, nil, err
	}
	a.log.WithPayload(map[string]interface{}{"driver": a.cfg.Databases.Driver}).Info("database ready")
	return s, func() { a.closeDB(db) }, nil
}

// newChatModel 构造对话模型，openai 兼容提供商走带熔断的 HTTP 客户端。
func (a *app) newChatModel(ctx context.Context) (llm.LLM, error) {
	timeout, err := llm.ParseTimeout(a.cfg.LLM.Chat.Timeout)
	if err != nil {
		return nil, err
	}
	hc, err := httpclient.NewClient(a.cfg.CircuitBreaker, timeout, func(from, to circuitbreaker.State) {
		a.log.WithPayload(map[string]interface{}{"from": from.String(), "to": to.String()}).Warn("chat model circuit breaker state changed")
	})
	if err != nil {
		return nil, err
	}
	return llm.NewLLM(ctx, a.cfg.LLM.Chat, hc)
}

func (a *app) newMemoryService(ctx context.Context, facts service.FactStore) (*service.MemoryService, error) {
	model, err := llm.NewLLM(ctx, a.cfg.LLM.Extraction, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction model: %w", err)
	}
	ms := service.NewMemoryService(extractor.NewLLMExtractor(model), facts, logger.New("memory_service", "", ""))
	if rate := a.cfg.Memory.ExtractionRate; rate > 0 {
		ms.WithRateLimiter(ratelimiter.NewTokenBucket(rate, a.cfg.Memory.ExtractionBurst))
	}
	return ms, nil
}

// newDispatcher 根据 memory.dispatch 选择后台任务的分发方式。
func (a *app) newDispatcher(ctx context.Context, facts service.FactStore) (dispatch.Dispatcher, error) {
	switch a.cfg.Memory.Dispatch {
	case config.DispatchKafka:
		kc, err := kafka.GetClient(&a.cfg.Databases.Kafka)
		if err != nil {
			return nil, err
		}
		w := kc.NewWriter(a.cfg.Memory.Topic)
		w.Async = true
		w.Completion = func(msgs []kafkago.Message, err error) {
			if err != nil {
				a.log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).
					WithPayload(map[string]interface{}{"count": len(msgs)}).Error("failed to publish memory tasks")
			}
		}
		return dispatch.NewKafkaDispatcher(w), nil
	case config.DispatchRedis:
		rc, err := redis.GetClient(ctx, &a.cfg.Databases.Redis)
		if err != nil {
			return nil, err
		}
		return dispatch.NewRedisDispatcher(rc, a.cfg.Memory.Topic, func(task models.MemoryTask, err error) {
			a.log.WithTrace(task.TraceID).WithUser(task.UserID).
				WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Error("failed to push memory task")
		}), nil
	default:
		ms, err := a.newMemoryService(ctx, facts)
		if err != nil {
			return nil, err
		}
		return dispatch.NewGoroutineDispatcher(ms), nil
	}
}
