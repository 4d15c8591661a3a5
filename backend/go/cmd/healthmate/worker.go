package main

import (
	"HealthMate/backend/go/internal/config"
	"HealthMate/backend/go/internal/database/kafka"
	"HealthMate/backend/go/internal/database/redis"
	"HealthMate/backend/go/internal/memory/consumer"
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume memory extraction tasks from Kafka or Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp("memory_service")
		if err != nil {
			return err
		}
		return a.work(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func (a *app) work(parent context.Context) error {
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

	memoryService, err := a.newMemoryService(ctx, healthStore)
	if err != nil {
		return err
	}

	topic := a.cfg.Memory.Topic
	a.log.WithPayload(map[string]interface{}{"dispatch": a.cfg.Memory.Dispatch, "topic": topic}).Info("Memory worker started")
	defer a.log.Info("Memory worker stopped")

	switch a.cfg.Memory.Dispatch {
	case config.DispatchKafka:
		kc, err := kafka.GetClient(&a.cfg.Databases.Kafka)
		if err != nil {
			return err
		}
		defer kafka.Close()
		if controller, err := kc.GetControllerInfo(); err == nil {
			a.log.WithPayload(map[string]interface{}{"controller": controller}).Info("connected to kafka")
		}
		return consumer.NewKafkaConsumer(kc.NewReader(topic), memoryService, a.log).Run(ctx)
	case config.DispatchRedis:
		rc, err := redis.GetClient(ctx, &a.cfg.Databases.Redis)
		if err != nil {
			return err
		}
		defer redis.Close()
		return consumer.NewRedisConsumer(rc, topic, memoryService, a.log).Run(ctx)
	default:
		return fmt.Errorf("memory.dispatch=%s runs in-process; the worker needs kafka or redis", a.cfg.Memory.Dispatch)
	}
}
