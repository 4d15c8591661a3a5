package main

import (
	"HealthMate/backend/go/internal/config"
	"HealthMate/backend/go/internal/database/kafka"
	"HealthMate/backend/go/internal/database/redis"
	"HealthMate/backend/go/internal/health_service/api"
	"HealthMate/backend/go/internal/health_service/service"
	"HealthMate/backend/go/internal/models"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp("health_service")
		if err != nil {
			return err
		}
		return a.serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	healthStore, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	persona, err := config.LoadPersona(a.cfg.LLM.PersonaPath)
	if err != nil {
		return err
	}

	chatModel, err := a.newChatModel(ctx)
	if err != nil {
		return err
	}

	dispatcher, err := a.newDispatcher(ctx, healthStore)
	if err != nil {
		return err
	}

	// Initialize dependencies (Store -> Service -> Handler)
	generator := service.NewGenerator(healthStore, chatModel, persona, *a.cfg.LLM.Temperature, dispatcher, a.log)
	healthService := service.NewService(healthStore, generator)
	handler := api.NewHandler(healthService, a.healthChecks(healthStore.Ping), a.log)

	if a.cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    a.cfg.Server.Address,
		Handler: api.SetupRouter(handler, a.log),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Starting server on " + a.cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	timeout, err := time.ParseDuration(a.cfg.Server.ShutdownTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(models.ErrorInfo{Message: err.Error()}).Error("server shutdown failed")
	}
	// 尽力排空后台记忆任务，超时后放弃。
	if err := dispatcher.Close(shutdownCtx); err != nil {
		a.log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrTypeQueue}).Warn("dropping unfinished memory tasks")
	}
	if a.cfg.Databases.Redis.Enabled {
		_ = redis.Close()
	}
	if a.cfg.Databases.Kafka.Enabled {
		_ = kafka.Close()
	}
	return nil
}

// healthChecks 返回 /healthz 需要检查的依赖。Redis 与 Kafka 仅在启用时检查。
func (a *app) healthChecks(db api.HealthChecker) map[string]api.HealthChecker {
	checks := map[string]api.HealthChecker{"database": db}
	if a.cfg.Databases.Redis.Enabled {
		checks["redis"] = redis.HealthCheck
	}
	if a.cfg.Databases.Kafka.Enabled {
		kcfg := &a.cfg.Databases.Kafka
		checks["kafka"] = func(ctx context.Context) error {
			kc, err := kafka.GetClient(kcfg)
			if err != nil {
				return err
			}
			return kc.HealthCheck(ctx)
		}
	}
	return checks
}
